package xmltree

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// TagReader is the lookup contract over one parsed document tree. Lookups are
// namespace-tolerant (an element matches by its local name, with or without a
// prefix) and silent-miss: a tag that is not present reads as the empty string.
type TagReader interface {
	// RootTag returns the exact local name of the root element.
	RootTag() string
	// FindTag returns the trimmed text of the first element in document
	// order whose local name matches, or "".
	FindTag(name string) string
	// FindScopedTag searches only inside the first element matching
	// ancestor. If the ancestor is absent the lookup misses, it never
	// falls back to the rest of the tree.
	FindScopedTag(ancestor, name string) string
}

type etreeReader struct {
	root *etree.Element
}

// Parse decodes the payload bytes and builds a TagReader over the tree.
// A malformed payload is the only error path.
func Parse(data []byte) (TagReader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	text, err := decodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document bytes: %w", err)
	}

	doc := etree.NewDocument()
	// Bytes were already transcoded to UTF-8; ignore the declared charset.
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	return &etreeReader{root: root}, nil
}

func (r *etreeReader) RootTag() string {
	return r.root.Tag
}

func (r *etreeReader) FindTag(name string) string {
	el := findFirst(r.root, localName(name))
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func (r *etreeReader) FindScopedTag(ancestor, name string) string {
	scope := findFirst(r.root, localName(ancestor))
	if scope == nil {
		return ""
	}
	el := findFirst(scope, localName(name))
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// findFirst walks the subtree depth-first and returns the first element whose
// local name matches. etree keeps the namespace prefix in Space, so Tag is
// already the local name.
func findFirst(el *etree.Element, name string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			return child
		}
		if found := findFirst(child, name); found != nil {
			return found
		}
	}
	return nil
}

func localName(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
