package layout

import (
	"strings"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/expr"
)

// State and constant reads are recorded under pseudo-property keys so that
// SetState/SetConstant can invalidate exactly the entries that consulted
// them.
const (
	statePrefix = "state\x00"
	constPrefix = "const\x00"
)

// propKey identifies one cached resolution: a node plus a property name
// (or a state/constant pseudo-property).
type propKey struct {
	node *Node
	prop string
}

func (k propKey) String() string {
	prop := k.prop
	if rest, ok := strings.CutPrefix(prop, statePrefix); ok {
		prop = "state." + rest
	} else if rest, ok := strings.CutPrefix(prop, constPrefix); ok {
		prop = "constants." + rest
	}
	return k.node.Path() + "." + prop
}

// Evaluator memoizes per-node per-property resolution results and tracks the
// reverse dependency edges needed to invalidate them transitively. One
// evaluator serves one node tree; it lives on the root.
//
// Resolution works like a build graph: resolving a property evaluates its
// expression, and every symbol lookup that lands on another (node, property)
// pair is a dependency edge. The in-progress stack doubles as the cycle
// detector.
type Evaluator struct {
	cache map[propKey]expr.Value
	// dependents is the reverse index: dependents[k] holds the keys whose
	// cached values consulted k and must be dropped when k changes.
	dependents map[propKey]map[propKey]struct{}
	stack      []propKey
}

func newEvaluator() *Evaluator {
	return &Evaluator{
		cache:      make(map[propKey]expr.Value),
		dependents: make(map[propKey]map[propKey]struct{}),
	}
}

// Resolve computes the node's value for a property, serving it from cache
// when the cached value is still valid.
func (n *Node) Resolve(property string) (expr.Value, *errors.Error) {
	return n.evaluator().resolve(n, property)
}

func (ev *Evaluator) resolve(node *Node, property string) (expr.Value, *errors.Error) {
	key := propKey{node: node, prop: property}
	ev.recordEdge(key)

	if v, ok := ev.cache[key]; ok {
		return v, nil
	}

	if ev.onStack(key) {
		err := errors.New("layout.Resolve", errors.KindCycle,
			"cyclic dependency: %s", ev.cycleChain(key))
		err.Node = node.Path()
		if e := node.expressions[property]; e != nil {
			err.Expression = e.Source()
		}
		return expr.Value{}, err
	}

	expression := node.expressions[property]
	if expression == nil {
		err := errors.New("layout.Resolve", errors.KindSymbolNotFound,
			"no expression for property %q", property)
		err.Node = node.Path()
		return expr.Value{}, err
	}

	ev.stack = append(ev.stack, key)
	value, err := expression.Evaluate(&evalContext{ev: ev, node: node, prop: property})
	ev.stack = ev.stack[:len(ev.stack)-1]

	if err != nil {
		layoutErr := errors.Wrap("layout.Resolve", err)
		if layoutErr.Node == "" {
			layoutErr.Node = node.Path()
		}
		if layoutErr.Expression == "" {
			layoutErr.Expression = expression.Source()
		}
		return expr.Value{}, layoutErr
	}

	ev.cache[key] = value
	return value, nil
}

// recordEdge marks the in-progress resolution (if any) as dependent on key.
// Cache hits record edges too: the caller depends on the entry regardless of
// how it was produced.
func (ev *Evaluator) recordEdge(key propKey) {
	if len(ev.stack) == 0 {
		return
	}
	dependent := ev.stack[len(ev.stack)-1]
	if dependent == key {
		return
	}
	set := ev.dependents[key]
	if set == nil {
		set = make(map[propKey]struct{})
		ev.dependents[key] = set
	}
	set[dependent] = struct{}{}
}

// touch records a dependency on a pseudo-property (state or constant key)
// without resolving anything.
func (ev *Evaluator) touch(node *Node, pseudoProp string) {
	ev.recordEdge(propKey{node: node, prop: pseudoProp})
}

func (ev *Evaluator) onStack(key propKey) bool {
	for _, k := range ev.stack {
		if k == key {
			return true
		}
	}
	return false
}

// cycleChain renders the resolution chain from the first occurrence of key
// back to itself, e.g. "a.width -> b.width -> a.width".
func (ev *Evaluator) cycleChain(key propKey) string {
	start := 0
	for i, k := range ev.stack {
		if k == key {
			start = i
			break
		}
	}
	var b strings.Builder
	for _, k := range ev.stack[start:] {
		b.WriteString(k.String())
		b.WriteString(" -> ")
	}
	b.WriteString(key.String())
	return b.String()
}

// invalidate drops the cache entry for key and, transitively, for every
// entry whose recorded dependency set included it.
func (ev *Evaluator) invalidate(key propKey) {
	dependents := ev.dependents[key]
	delete(ev.dependents, key)
	delete(ev.cache, key)
	for dependent := range dependents {
		ev.invalidate(dependent)
	}
}

// invalidateSubtree conservatively drops every entry belonging to the
// subtree rooted at n, plus everything depending on those entries. Used on
// unmount and remount, where precise edges are not worth maintaining.
func (ev *Evaluator) invalidateSubtree(n *Node) {
	var keys []propKey
	for key := range ev.cache {
		if key.node.isDescendantOf(n) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		ev.invalidate(key)
	}
}

// invalidateTree drops everything. Structure changes (child insert/remove)
// can redirect sibling and named lookups anywhere in the tree.
func (ev *Evaluator) invalidateTree() {
	ev.cache = make(map[propKey]expr.Value)
	ev.dependents = make(map[propKey]map[propKey]struct{})
}

// cached reports whether a valid cache entry exists (test hook).
func (ev *Evaluator) cached(node *Node, property string) bool {
	_, ok := ev.cache[propKey{node: node, prop: property}]
	return ok
}

func (n *Node) isDescendantOf(ancestor *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// InvalidateAll drops every cached value in the node's tree. Soft reload
// uses this to force full re-evaluation without re-parsing.
func (n *Node) InvalidateAll() {
	n.Root().evaluator().invalidateTree()
}
