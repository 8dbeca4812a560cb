// Package markup turns layout XML documents into node trees. An element's
// name is the view type, a "name" attribute names the node for sibling and
// named-reference lookup, and every other attribute is an expression source
// string for the property of the same name.
package markup

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/layout"
)

// Spec is the decoded form of one XML element, before expressions are
// parsed and attached.
type Spec struct {
	ViewType    string
	Name        string
	Expressions map[string]string
	Children    []*Spec
}

// ParseDocument decodes a layout XML document into a Spec tree. The document
// must have exactly one root element.
func ParseDocument(r io.Reader) (*Spec, *errors.Error) {
	decoder := xml.NewDecoder(r)
	var root *Spec
	var stack []*Spec

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErr := errors.Wrap("markup.ParseDocument", err)
			parseErr.Kind = errors.KindParse
			return nil, parseErr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			spec := &Spec{
				ViewType:    t.Name.Local,
				Expressions: make(map[string]string, len(t.Attr)),
			}
			for _, attr := range t.Attr {
				if attr.Name.Local == "name" && attr.Name.Space == "" {
					spec.Name = attr.Value
					continue
				}
				spec.Expressions[attr.Name.Local] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("markup.ParseDocument", errors.KindParse,
						"document has more than one root element")
				}
				root = spec
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, spec)
			}
			stack = append(stack, spec)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			// Bare text content becomes the element's text property unless
			// a text attribute was given explicitly.
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			current := stack[len(stack)-1]
			if _, explicit := current.Expressions["text"]; !explicit {
				current.Expressions["text"] = text
			}
		}
	}

	if root == nil {
		return nil, errors.New("markup.ParseDocument", errors.KindParse,
			"document has no root element")
	}
	return root, nil
}

// Options configure Build.
type Options struct {
	// State seeds the root node's state.
	State map[string]any
	// Constants seed the root node's constants, inherited by the whole tree.
	Constants map[string]any
	// RelativeBase is the directory relative resource paths resolve against.
	// It is published to expressions as the constant "sourceDirectory".
	RelativeBase string
}

// Build attaches expressions and produces an unmounted node tree from a
// Spec tree.
func Build(spec *Spec, opts Options) (*layout.Node, *errors.Error) {
	constants := make(map[string]any, len(opts.Constants)+1)
	for k, v := range opts.Constants {
		constants[k] = v
	}
	if opts.RelativeBase != "" {
		constants["sourceDirectory"] = opts.RelativeBase
	}
	return build(spec, opts.State, constants)
}

func build(spec *Spec, state map[string]any, constants map[string]any) (*layout.Node, *errors.Error) {
	children := make([]*layout.Node, 0, len(spec.Children))
	for _, childSpec := range spec.Children {
		child, err := build(childSpec, nil, nil)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return layout.NewNode(spec.ViewType, layout.Config{
		Name:        spec.Name,
		Expressions: spec.Expressions,
		State:       state,
		Constants:   constants,
		Children:    children,
	})
}

// Load parses and builds a layout document in one step.
func Load(r io.Reader, opts Options) (*layout.Node, *errors.Error) {
	spec, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return Build(spec, opts)
}

// LoadFile reads, parses, and builds a layout document from disk.
func LoadFile(path string, opts Options) (*layout.Node, *errors.Error) {
	f, err := os.Open(path)
	if err != nil {
		loadErr := errors.Wrap("markup.LoadFile", err)
		return nil, loadErr
	}
	defer f.Close()
	return Load(f, opts)
}
