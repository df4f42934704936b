package xmltree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sparqlResult = `<?xml version="1.0"?>
<sparql xmlns="http://www.w3.org/2005/sparql-results#">
  <head><variable name="location"/></head>
  <results>
    <result>
      <binding name="location">
        <literal datatype="http://www.opengis.net/ont/geosparql#wktLiteral">POINT(7.8494 47.9959)</literal>
      </binding>
    </result>
  </results>
</sparql>`

const nodeResponse = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="openstreetmap-cgimap">
  <node id="1" visible="true" version="3" lat="51.5" lon="-0.12">
    <tag k="amenity" v="cafe"/>
  </node>
</osm>`

func TestParseAttributeValue_ElementText(t *testing.T) {
	v, err := ParseAttributeValue(sparqlResult, "sparql/results/result/binding/literal")
	require.NoError(t, err)
	assert.Equal(t, "POINT(7.8494 47.9959)", v)
}

func TestParseAttributeValue_Attribute(t *testing.T) {
	v, err := ParseAttributeValue(nodeResponse, "osm/node/@lat")
	require.NoError(t, err)
	assert.Equal(t, "51.5", v)

	v, err = ParseAttributeValue(nodeResponse, "osm/@version")
	require.NoError(t, err)
	assert.Equal(t, "0.6", v)
}

func TestParseAttributeValue_MissingPath(t *testing.T) {
	empty := `<sparql xmlns="http://www.w3.org/2005/sparql-results#"><head/><results/></sparql>`

	_, err := ParseAttributeValue(empty, "sparql/results/result/binding/literal")
	require.Error(t, err)

	var pe *PathNotFoundError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "sparql/results/result/binding/literal", pe.Path)
	assert.True(t, IsPathNotFound(err))
}

func TestParseAttributeValue_MissingAttribute(t *testing.T) {
	_, err := ParseAttributeValue(nodeResponse, "osm/node/@changeset")
	assert.True(t, IsPathNotFound(err))
}

func TestParseAttributeValue_EmptyTextIsNotMissing(t *testing.T) {
	v, err := ParseAttributeValue(`<a><b></b></a>`, "a/b")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"plain text": "sequenceNumber=1",
		"unclosed":   "<osm><node id=\"1\"></osm>",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			var me *MalformedInputError
			assert.True(t, errors.As(err, &me), "expected MalformedInputError, got %v", err)
		})
	}
}

func TestReadAttribute(t *testing.T) {
	doc, err := Parse(`<way id="5"><nd ref="7"/></way>`)
	require.NoError(t, err)

	nd := doc.Root().SelectElement("nd")
	v, err := ReadAttribute("ref", nd)
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	_, err = ReadAttribute("role", nd)
	var pe *PathNotFoundError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nd/@role", pe.Path)

	_, err = ReadAttribute("ref", nil)
	assert.True(t, IsPathNotFound(err))
}

func TestReadNamedChildText(t *testing.T) {
	doc, err := Parse(`<result><binding name="x"><literal>POINT(1 2)</literal></binding></result>`)
	require.NoError(t, err)

	binding := doc.Root().SelectElement("binding")
	v, err := ReadNamedChildText(binding, "literal")
	require.NoError(t, err)
	assert.Equal(t, "POINT(1 2)", v)

	_, err = ReadNamedChildText(binding, "uri")
	assert.True(t, IsPathNotFound(err))
}

func TestReadNodeElement(t *testing.T) {
	node, err := ReadNodeElement(nodeResponse)
	require.NoError(t, err)
	assert.NotContains(t, node, "<osm")

	lat, err := ParseAttributeValue(node, "node/@lat")
	require.NoError(t, err)
	assert.Equal(t, "51.5", lat)

	tag, err := ParseAttributeValue(node, "node/tag/@v")
	require.NoError(t, err)
	assert.Equal(t, "cafe", tag)
}

func TestReadNodeElement_NoNode(t *testing.T) {
	_, err := ReadNodeElement(`<osm version="0.6"/>`)
	assert.True(t, IsPathNotFound(err))
}

func TestSplitAttribute(t *testing.T) {
	cases := []struct {
		path, elem, attr string
	}{
		{"osm/node/@id", "osm/node", "id"},
		{"osm/node", "osm/node", ""},
		{"@id", "", "id"},
		{"", "", ""},
	}
	for _, c := range cases {
		elem, attr := splitAttribute(c.path)
		assert.Equal(t, c.elem, elem, c.path)
		assert.Equal(t, c.attr, attr, c.path)
	}
}
