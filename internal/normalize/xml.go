package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

var (
	errNoRoot        = errors.New("xml: no root element")
	errMultipleRoots = errors.New("xml: junk after document element")
)

// DecodeXML parses fragment as a complete XML document and returns a single
// entry mapping from the root's local name to its decoded subtree.
func DecodeXML(fragment string) (map[string]any, error) {
	root, err := parseXML(fragment)
	if err != nil {
		return nil, err
	}
	name, err := clarkName(root)
	if err != nil {
		return nil, err
	}
	value, err := decodeElement(root)
	if err != nil {
		return nil, err
	}
	return map[string]any{StripKey(name): value}, nil
}

// parseXML reads fragment with etree and enforces what a conforming parser
// would: one root element and no stray text around it.
func parseXML(fragment string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
	}
	if err := doc.ReadFromString(fragment); err != nil {
		return nil, err
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, errMultipleRoots
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil, fmt.Errorf("xml: text outside root element: %q", t.Data)
			}
		}
	}
	if root == nil {
		return nil, errNoRoot
	}
	if err := checkAttrs(root); err != nil {
		return nil, err
	}
	return root, nil
}

// checkAttrs rejects elements that repeat an attribute name, which etree
// accepts silently.
func checkAttrs(el *etree.Element) error {
	if len(el.Attr) > 1 {
		seen := make(map[string]struct{}, len(el.Attr))
		for _, a := range el.Attr {
			key := a.FullKey()
			if _, dup := seen[key]; dup {
				return fmt.Errorf("xml: duplicate attribute %q on <%s>", key, el.FullTag())
			}
			seen[key] = struct{}{}
		}
	}
	for _, child := range el.ChildElements() {
		if err := checkAttrs(child); err != nil {
			return err
		}
	}
	return nil
}

// clarkName renders the element name as "{uri}local", or just "local" when
// the element is not in a namespace.
func clarkName(el *etree.Element) (string, error) {
	uri := el.NamespaceURI()
	if el.Space != "" && uri == "" && el.Space != "xml" {
		return "", fmt.Errorf("xml: unbound prefix %q on <%s>", el.Space, el.FullTag())
	}
	if uri == "" {
		return el.Tag, nil
	}
	return "{" + uri + "}" + el.Tag, nil
}

// decodeElement turns el into a string (leaf with text), nil (empty leaf) or
// a mapping of child local names. Repeated child names collapse into an
// ordered slice; the first occurrence stays scalar-shaped until a second
// one appears.
func decodeElement(el *etree.Element) (any, error) {
	children := el.ChildElements()
	if len(children) == 0 {
		if text := strings.TrimSpace(leafText(el)); text != "" {
			return text, nil
		}
		return nil, nil
	}

	result := make(map[string]any, len(children))
	for _, child := range children {
		value, err := decodeElement(child)
		if err != nil {
			return nil, err
		}
		name, err := clarkName(child)
		if err != nil {
			return nil, err
		}
		tag := StripKey(name)

		existing, seen := result[tag]
		if !seen {
			result[tag] = value
			continue
		}
		if seq, ok := existing.([]any); ok {
			result[tag] = append(seq, value)
		} else {
			result[tag] = []any{existing, value}
		}
	}
	return result, nil
}

func leafText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}
