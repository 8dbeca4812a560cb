package layout

import (
	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/expr"
)

// evalContext is the expr.Context for one (node, property) resolution. It is
// built per evaluation and never stored; the scope it exposes is the node's
// own properties, geometry pseudo-symbols, ordered siblings, named nodes
// found through the ancestor chain, state, and constants.
type evalContext struct {
	ev   *Evaluator
	node *Node
	prop string
}

// PercentBase returns the container dimension percentages in the current
// property resolve against: the parent's width for horizontal properties,
// the parent's height for vertical ones, and width for everything else.
func (c *evalContext) PercentBase() (float64, error) {
	n, err := c.ev.percentBase(c.node, c.prop)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (c *evalContext) LookupSymbol(path []string) (expr.Value, error) {
	v, err := c.ev.lookup(c.node, path)
	if err != nil {
		return expr.Value{}, err
	}
	return v, nil
}

// verticalProps decides the percentage axis per property name.
var verticalProps = map[string]bool{
	"height": true,
	"top":    true,
	"bottom": true,
	"y":      true,
}

func (ev *Evaluator) percentBase(node *Node, property string) (float64, *errors.Error) {
	vertical := verticalProps[property]
	parent := node.parent
	if parent == nil {
		bounds := node.Root().bounds
		if vertical {
			return bounds.Height(), nil
		}
		return bounds.Width(), nil
	}
	dim := "width"
	if vertical {
		dim = "height"
	}
	v, err := ev.resolveGeometry(parent, dim)
	if err != nil {
		return 0, err
	}
	n, nerr := v.AsNumber()
	if nerr != nil {
		return 0, errors.Wrap("layout.percentBase", nerr)
	}
	return n, nil
}

// lookup resolves a symbol path in the node's scope. Resolution order is
// fixed: own properties, geometry pseudo-symbols, previous/next siblings,
// named nodes via the ancestor chain, state, constants. The first match
// wins; no match is an error, never a silent default.
func (ev *Evaluator) lookup(node *Node, path []string) (expr.Value, *errors.Error) {
	// (1) An exact property-name match on the node itself.
	joined := dottedJoin(path)
	if node.expressions[joined] != nil {
		return ev.resolve(node, joined)
	}

	// (2) Geometry pseudo-symbols, computed from resolved geometry.
	if len(path) == 1 && isGeometrySymbol(path[0]) {
		return ev.resolveGeometry(node, path[0])
	}

	// (3) previous/next against ordered siblings.
	if path[0] == "previous" || path[0] == "next" {
		sibling := node.previousSibling()
		if path[0] == "next" {
			sibling = node.nextSibling()
		}
		if sibling == nil {
			return expr.Value{}, ev.symbolNotFound(node, path,
				"node has no %s sibling", path[0])
		}
		if len(path) == 1 {
			return expr.Value{}, ev.symbolNotFound(node, path,
				"%q needs a property, e.g. %s.bottom", path[0], path[0])
		}
		return ev.anchored(sibling, path[1:], path)
	}

	// (4) Named-node lookup through the ancestors' subtrees.
	for ancestor := node.parent; ancestor != nil; ancestor = ancestor.parent {
		if found := ancestor.findNamed(path[0]); found != nil {
			if len(path) == 1 {
				return expr.Value{}, ev.symbolNotFound(node, path,
					"reference to node %q needs a property, e.g. %s.width", path[0], path[0])
			}
			return ev.anchored(found, path[1:], path)
		}
	}

	// (5) State keys, node-local then inherited.
	for cur := node; cur != nil; cur = cur.parent {
		if v, ok := cur.state[path[0]]; ok {
			ev.touch(cur, statePrefix+path[0])
			return ev.valuePath(node, v, path)
		}
	}

	// (6) Constants, node-local then inherited then process-global.
	for cur := node; cur != nil; cur = cur.parent {
		if v, ok := cur.constants[path[0]]; ok {
			ev.touch(cur, constPrefix+path[0])
			return ev.valuePath(node, v, path)
		}
	}
	if v, ok := globalConstants[path[0]]; ok {
		ev.touch(node.Root(), constPrefix+path[0])
		return ev.valuePath(node, v, path)
	}

	return expr.Value{}, ev.symbolNotFound(node, path, "unresolved symbol %q", joined)
}

// anchored resolves the remainder of a sibling or named-node reference
// against that node's own scope: properties, geometry, state, constants —
// but not its siblings or names, which would make references relative in
// surprising ways.
func (ev *Evaluator) anchored(target *Node, rest []string, full []string) (expr.Value, *errors.Error) {
	joined := dottedJoin(rest)
	if target.expressions[joined] != nil {
		return ev.resolve(target, joined)
	}
	if len(rest) == 1 && isGeometrySymbol(rest[0]) {
		return ev.resolveGeometry(target, rest[0])
	}
	if v, ok := target.state[rest[0]]; ok {
		ev.touch(target, statePrefix+rest[0])
		return ev.valuePath(target, v, rest)
	}
	if v, ok := target.constants[rest[0]]; ok {
		ev.touch(target, constPrefix+rest[0])
		return ev.valuePath(target, v, rest)
	}
	return expr.Value{}, ev.symbolNotFound(target, full,
		"%s has no property %q", target.Path(), joined)
}

// valuePath descends a dotted path into a state/constant value. Maps of
// string keys support nesting; any other kind must be the final segment.
func (ev *Evaluator) valuePath(node *Node, v expr.Value, path []string) (expr.Value, *errors.Error) {
	for _, segment := range path[1:] {
		obj, ok := v.AsObject().(map[string]any)
		if !ok {
			return expr.Value{}, ev.symbolNotFound(node, path,
				"%s is not a keyed value; cannot read %q", v.Kind(), segment)
		}
		inner, ok := obj[segment]
		if !ok {
			return expr.Value{}, ev.symbolNotFound(node, path,
				"no key %q in %q", segment, dottedJoin(path))
		}
		v = expr.FromAny(inner)
	}
	return v, nil
}

func (ev *Evaluator) symbolNotFound(node *Node, path []string, format string, args ...any) *errors.Error {
	err := errors.New("layout.Resolve", errors.KindSymbolNotFound, format, args...)
	err.Node = node.Path()
	return err
}

func isGeometrySymbol(name string) bool {
	switch name {
	case "left", "top", "width", "height", "bottom", "right":
		return true
	}
	return false
}

// resolveGeometry produces a geometry value for a node. A property with an
// attached expression resolves through the cache; otherwise left/top default
// to 0, width/height default to the container dimension, and bottom/right
// derive from the frame inputs.
func (ev *Evaluator) resolveGeometry(node *Node, name string) (expr.Value, *errors.Error) {
	if node.expressions[name] != nil {
		return ev.resolve(node, name)
	}
	switch name {
	case "left", "top":
		return expr.Number(0), nil
	case "width", "height":
		base, err := ev.percentBase(node, name)
		if err != nil {
			return expr.Value{}, err
		}
		return expr.Number(base), nil
	case "bottom":
		return ev.derivedEdge(node, "top", "height")
	case "right":
		return ev.derivedEdge(node, "left", "width")
	}
	return expr.Value{}, ev.symbolNotFound(node, []string{name},
		"unknown geometry symbol %q", name)
}

func (ev *Evaluator) derivedEdge(node *Node, origin, extent string) (expr.Value, *errors.Error) {
	o, err := ev.resolveGeometry(node, origin)
	if err != nil {
		return expr.Value{}, err
	}
	e, err := ev.resolveGeometry(node, extent)
	if err != nil {
		return expr.Value{}, err
	}
	on, nerr := o.AsNumber()
	if nerr != nil {
		return expr.Value{}, errors.Wrap("layout.resolveGeometry", nerr)
	}
	en, nerr := e.AsNumber()
	if nerr != nil {
		return expr.Value{}, errors.Wrap("layout.resolveGeometry", nerr)
	}
	return expr.Number(on + en), nil
}
