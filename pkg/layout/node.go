// Package layout implements the node tree at the heart of Stencil: nodes
// hold parsed expressions for their properties, an evaluator resolves those
// expressions in dependency order with caching and cycle detection, and the
// mount lifecycle applies resolved values to native views.
package layout

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-stencil/stencil/pkg/backend"
	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/expr"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// nodeSeq hands out debug identifiers. Node identity itself is pointer
// identity; the sequence number only makes log output stable.
var nodeSeq atomic.Uint64

// templateProps are the properties whose source strings parse in string
// interpolation mode ("text {expr} more") rather than as bare expressions.
var templateProps = map[string]bool{
	"text":        true,
	"title":       true,
	"label":       true,
	"placeholder": true,
	"hint":        true,
}

// RegisterTemplateProperty marks a property name as string-interpolated for
// subsequently constructed nodes.
func RegisterTemplateProperty(name string) {
	templateProps[name] = true
}

// geometryProps are the frame inputs. "bottom" and "right" are derived.
var geometryProps = map[string]bool{
	"left":   true,
	"top":    true,
	"width":  true,
	"height": true,
}

// Config describes a node constructed in memory, bypassing XML. The error
// overlay and embedding code build trees this way.
type Config struct {
	// Name enables sibling/descendant lookup by name.
	Name string
	// Expressions maps property names to expression source strings.
	Expressions map[string]string
	// State seeds the node's keyed state, visible to expressions.
	State map[string]any
	// Constants seeds the node's read-only constants, visible to expressions
	// of the node and its descendants.
	Constants map[string]any
	// Children are appended in order; the node takes ownership.
	Children []*Node
}

// Node represents one view in the hierarchy. The parent owns its children;
// the parent pointer is for lookup only. All methods must be called from the
// UI-owning goroutine.
type Node struct {
	id       uint64
	viewType string
	name     string

	parent   *Node
	children []*Node

	expressions map[string]*expr.Expression
	state       map[string]expr.Value
	constants   map[string]expr.Value

	view         backend.View
	container    backend.View
	applied      map[string]expr.Value
	appliedFrame *geometry.Rect
	mounted      bool

	// Root-only fields.
	eval    *Evaluator
	factory backend.Factory
	bounds  geometry.Rect
}

// NewNode constructs an unmounted node. Every expression source is parsed
// immediately; the first parse failure aborts construction with that error
// annotated with the node's path.
func NewNode(viewType string, cfg Config) (*Node, *errors.Error) {
	n := &Node{
		id:          nodeSeq.Add(1),
		viewType:    viewType,
		name:        cfg.Name,
		expressions: make(map[string]*expr.Expression, len(cfg.Expressions)),
	}
	if len(cfg.State) > 0 {
		n.state = make(map[string]expr.Value, len(cfg.State))
		for k, v := range cfg.State {
			n.state[k] = expr.FromAny(v)
		}
	}
	if len(cfg.Constants) > 0 {
		n.constants = make(map[string]expr.Value, len(cfg.Constants))
		for k, v := range cfg.Constants {
			n.constants[k] = expr.FromAny(v)
		}
	}

	// Parse in sorted order so repeated failures surface deterministically.
	props := make([]string, 0, len(cfg.Expressions))
	for prop := range cfg.Expressions {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		if err := n.setExpression(prop, cfg.Expressions[prop]); err != nil {
			err.Node = n.Path()
			return nil, err
		}
	}

	for _, child := range cfg.Children {
		n.AppendChild(child)
	}
	return n, nil
}

// MustNode is NewNode for statically known-good configurations, such as the
// framework's own error overlay tree.
func MustNode(viewType string, cfg Config) *Node {
	n, err := NewNode(viewType, cfg)
	if err != nil {
		panic(err)
	}
	return n
}

// ViewType returns the node's view type name.
func (n *Node) ViewType() string { return n.viewType }

// Name returns the node's lookup name, or "".
func (n *Node) Name() string { return n.name }

// Parent returns the owning parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in order. The slice is shared;
// callers must not mutate it.
func (n *Node) Children() []*Node { return n.children }

// Mounted reports whether the node currently has an attached view.
func (n *Node) Mounted() bool { return n.mounted }

// View returns the native view handle, or nil before the first mount.
func (n *Node) View() backend.View { return n.view }

// Root walks to the tree root.
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Path renders the node's position for error messages,
// e.g. "root/stack[1]/label#title".
func (n *Node) Path() string {
	if n.parent == nil {
		return n.pathSegment()
	}
	return n.parent.Path() + "/" + n.pathSegment()
}

func (n *Node) pathSegment() string {
	seg := n.viewType
	if n.parent != nil {
		for i, sibling := range n.parent.children {
			if sibling == n {
				seg = fmt.Sprintf("%s[%d]", seg, i)
				break
			}
		}
	}
	if n.name != "" {
		seg += "#" + n.name
	}
	return seg
}

func (n *Node) String() string {
	return fmt.Sprintf("node-%d(%s)", n.id, n.Path())
}

// AppendChild adds a child to the end of the child list, transferring
// ownership. Structure changes invalidate the whole tree's cache: sibling
// and named lookups may resolve differently afterwards.
func (n *Node) AppendChild(child *Node) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	// A subtree that lived as its own tree drops its evaluator; its caches
	// do not carry over.
	child.eval = nil
	child.parent = n
	n.children = append(n.children, child)
	n.Root().evaluator().invalidateTree()
}

// RemoveChild detaches a child, returning ownership to the caller.
// A mounted child is unmounted first.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c != child {
			continue
		}
		if child.mounted {
			child.Unmount()
		}
		n.children = append(n.children[:i], n.children[i+1:]...)
		child.parent = nil
		n.Root().evaluator().invalidateTree()
		return
	}
}

// previousSibling returns the node immediately before n in its parent's
// child list, or nil.
func (n *Node) previousSibling() *Node {
	if n.parent == nil {
		return nil
	}
	for i, sibling := range n.parent.children {
		if sibling == n && i > 0 {
			return n.parent.children[i-1]
		}
	}
	return nil
}

// nextSibling returns the node immediately after n, or nil.
func (n *Node) nextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	for i, sibling := range n.parent.children {
		if sibling == n && i+1 < len(n.parent.children) {
			return n.parent.children[i+1]
		}
	}
	return nil
}

// findNamed searches the subtree rooted at n, depth-first, for a node with
// the given name.
func (n *Node) findNamed(name string) *Node {
	if n.name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.findNamed(name); found != nil {
			return found
		}
	}
	return nil
}

// Expression returns the parsed expression attached for a property, or nil.
func (n *Node) Expression(property string) *expr.Expression {
	return n.expressions[property]
}

// Properties returns the node's expression property names, sorted.
func (n *Node) Properties() []string {
	props := make([]string, 0, len(n.expressions))
	for prop := range n.expressions {
		props = append(props, prop)
	}
	sort.Strings(props)
	return props
}

// SetExpression replaces a property's expression source, discarding the old
// parsed form and invalidating everything that depended on the property.
func (n *Node) SetExpression(property, source string) *errors.Error {
	if err := n.setExpression(property, source); err != nil {
		err.Node = n.Path()
		return err
	}
	n.Root().evaluator().invalidate(propKey{node: n, prop: property})
	return nil
}

func (n *Node) setExpression(property, source string) *errors.Error {
	var parsed *expr.Expression
	var err *errors.Error
	if templateProps[property] {
		parsed, err = expr.ParseTemplate(source)
	} else {
		parsed, err = expr.Parse(source)
	}
	if err != nil {
		return err
	}
	n.expressions[property] = parsed
	return nil
}

// SetState sets one state key and invalidates every cached value that
// transitively depended on it.
func (n *Node) SetState(key string, value any) {
	if n.state == nil {
		n.state = make(map[string]expr.Value)
	}
	n.state[key] = expr.FromAny(value)
	n.Root().evaluator().invalidate(propKey{node: n, prop: statePrefix + key})
}

// SetStateMap replaces the node's state wholesale, invalidating the union
// of removed, changed, and added keys.
func (n *Node) SetStateMap(state map[string]any) {
	ev := n.Root().evaluator()
	touched := make(map[string]bool, len(n.state)+len(state))
	for k := range n.state {
		touched[k] = true
	}
	n.state = make(map[string]expr.Value, len(state))
	for k, v := range state {
		n.state[k] = expr.FromAny(v)
		touched[k] = true
	}
	for k := range touched {
		ev.invalidate(propKey{node: n, prop: statePrefix + k})
	}
}

// State returns the node's state value for a key.
func (n *Node) State(key string) (expr.Value, bool) {
	v, ok := n.state[key]
	return v, ok
}

// SetConstant sets one constants key and invalidates its dependents.
// Constants are read-only to expressions, not to the host.
func (n *Node) SetConstant(key string, value any) {
	if n.constants == nil {
		n.constants = make(map[string]expr.Value)
	}
	n.constants[key] = expr.FromAny(value)
	n.Root().evaluator().invalidate(propKey{node: n, prop: constPrefix + key})
}

// evaluator returns the tree's evaluator, creating it on the root on first
// use. Every node in one tree shares the root's evaluator so cross-node
// dependencies land in one cache.
func (n *Node) evaluator() *Evaluator {
	root := n.Root()
	if root.eval == nil {
		root.eval = newEvaluator()
	}
	return root.eval
}

// SetFactory sets the view factory for this tree. Only meaningful on the
// root; descendants inherit it.
func (n *Node) SetFactory(f backend.Factory) {
	n.Root().factory = f
}

func (n *Node) treeFactory() backend.Factory {
	if f := n.Root().factory; f != nil {
		return f
	}
	return backend.DefaultFactory()
}

// globalConstants holds process-wide constants, consulted after the node's
// inherited constants chain. Mutations require a soft reload to take effect
// on already-resolved values.
var globalConstants = map[string]expr.Value{}

// SetGlobalConstant sets a process-wide constant. Call reload.Reload(false)
// afterwards to re-evaluate mounted trees against the new value.
func SetGlobalConstant(key string, value any) {
	globalConstants[key] = expr.FromAny(value)
}

// GlobalConstant reads a process-wide constant.
func GlobalConstant(key string) (expr.Value, bool) {
	v, ok := globalConstants[key]
	return v, ok
}

// dottedJoin renders a symbol path for messages.
func dottedJoin(path []string) string {
	return strings.Join(path, ".")
}
