// Package xmltree reads values out of XML documents by path. Paths use
// slash-separated element names relative to the document, optionally ending
// in an attribute selector, e.g. "osm/node/@lat".
package xmltree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Parse builds a tree from text. Input without a root element is malformed.
func Parse(text string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	if doc.Root() == nil {
		return nil, &MalformedInputError{Err: errors.New("no root element")}
	}
	return doc, nil
}

// ParseAttributeValue parses text and returns the value at path: the text of
// the selected element, or the named attribute for paths ending in "/@name".
func ParseAttributeValue(text, path string) (string, error) {
	doc, err := Parse(text)
	if err != nil {
		return "", err
	}
	return Value(&doc.Element, path)
}

// Value resolves path relative to root.
func Value(root *etree.Element, path string) (string, error) {
	elemPath, attr := splitAttribute(path)

	el := root
	if elemPath != "" {
		compiled, err := etree.CompilePath(elemPath)
		if err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrInvalidPath, path, err)
		}
		el = root.FindElementPath(compiled)
		if el == nil {
			return "", &PathNotFoundError{Path: path}
		}
	}

	if attr != "" {
		a := el.SelectAttr(attr)
		if a == nil {
			return "", &PathNotFoundError{Path: path}
		}
		return a.Value, nil
	}

	return el.Text(), nil
}

// ReadAttribute returns the value of attribute name on element.
func ReadAttribute(name string, element *etree.Element) (string, error) {
	if element == nil {
		return "", &PathNotFoundError{Path: "@" + name}
	}
	a := element.SelectAttr(name)
	if a == nil {
		return "", &PathNotFoundError{Path: element.Tag + "/@" + name}
	}
	return a.Value, nil
}

// ReadNamedChildText returns the text of the first direct child named tag.
func ReadNamedChildText(element *etree.Element, tag string) (string, error) {
	if element == nil {
		return "", &PathNotFoundError{Path: tag}
	}
	child := element.SelectElement(tag)
	if child == nil {
		return "", &PathNotFoundError{Path: element.Tag + "/" + tag}
	}
	return child.Text(), nil
}

// ReadNodeElement narrows an OSM API response down to its first node
// element and serializes it on its own.
func ReadNodeElement(text string) (string, error) {
	return ReadElement(text, "node")
}

// ReadElement returns the first element named tag anywhere in text,
// serialized as a standalone document.
func ReadElement(text, tag string) (string, error) {
	doc, err := Parse(text)
	if err != nil {
		return "", err
	}

	compiled, err := etree.CompilePath("//" + tag)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidPath, tag, err)
	}
	el := doc.FindElementPath(compiled)
	if el == nil {
		return "", &PathNotFoundError{Path: tag}
	}

	out := etree.NewDocument()
	out.SetRoot(el.Copy())
	s, err := out.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serializing %s: %w", tag, err)
	}
	return s, nil
}

func splitAttribute(path string) (string, string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ""
	}
	if strings.HasPrefix(path, "@") {
		return "", path[1:]
	}
	if i := strings.LastIndex(path, "/@"); i >= 0 {
		return path[:i], path[i+2:]
	}
	return path, ""
}
