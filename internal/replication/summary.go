package replication

import (
	"fmt"

	"github.com/dgnsrekt/osm-live-updates/internal/xmltree"
)

// Summary counts the elements of an osmChange document per action and type.
type Summary struct {
	Creates   int `json:"creates"`
	Modifies  int `json:"modifies"`
	Deletes   int `json:"deletes"`
	Nodes     int `json:"nodes"`
	Ways      int `json:"ways"`
	Relations int `json:"relations"`
}

func (s Summary) Total() int {
	return s.Creates + s.Modifies + s.Deletes
}

// Summarize walks the action blocks of an osmChange document. An empty
// document yields an empty summary.
func Summarize(content string) (Summary, error) {
	var s Summary
	if content == "" {
		return s, nil
	}

	doc, err := xmltree.Parse(content)
	if err != nil {
		return s, err
	}

	root := doc.Root()
	if root.Tag != "osmChange" {
		return s, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	for _, block := range root.ChildElements() {
		for _, el := range block.ChildElements() {
			switch el.Tag {
			case "node":
				s.Nodes++
			case "way":
				s.Ways++
			case "relation":
				s.Relations++
			default:
				continue
			}

			switch block.Tag {
			case "create":
				s.Creates++
			case "modify":
				s.Modifies++
			case "delete":
				s.Deletes++
			}
		}
	}
	return s, nil
}
