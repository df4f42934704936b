package config

const (
	DefaultDatabaseURL    = "https://planet.openstreetmap.org/replication/minute"
	DefaultNodeURL        = "https://www.openstreetmap.org/api/0.6/node"
	DefaultSPARQLEndpoint = "https://qlever.cs.uni-freiburg.de/api/osm-planet"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}
