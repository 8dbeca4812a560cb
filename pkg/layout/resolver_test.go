package layout

import (
	"strings"
	"testing"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
)

func mustNode(t *testing.T, viewType string, cfg Config) *Node {
	t.Helper()
	n, err := NewNode(viewType, cfg)
	if err != nil {
		t.Fatalf("NewNode(%s): %v", viewType, err)
	}
	return n
}

func resolveNumber(t *testing.T, n *Node, property string) float64 {
	t.Helper()
	v, err := n.Resolve(property)
	if err != nil {
		t.Fatalf("Resolve(%s.%s): %v", n.Path(), property, err)
	}
	num, nerr := v.AsNumber()
	if nerr != nil {
		t.Fatalf("Resolve(%s.%s): not a number: %v", n.Path(), property, nerr)
	}
	return num
}

func TestResolve_PreviousSiblingGeometry(t *testing.T) {
	first := mustNode(t, "label", Config{Expressions: map[string]string{
		"height": "100",
	}})
	second := mustNode(t, "label", Config{Expressions: map[string]string{
		"top": "previous.bottom + 30",
	}})
	mustNode(t, "column", Config{Children: []*Node{first, second}})

	if got := resolveNumber(t, second, "top"); got != 130 {
		t.Errorf("second.top = %v, want 130", got)
	}
}

func TestResolve_NamedNodeLookup(t *testing.T) {
	header := mustNode(t, "view", Config{Name: "header", Expressions: map[string]string{
		"top":    "0",
		"height": "64",
	}})
	body := mustNode(t, "view", Config{Expressions: map[string]string{
		"top": "header.bottom + 8",
	}})
	mustNode(t, "column", Config{Children: []*Node{header, body}})

	if got := resolveNumber(t, body, "top"); got != 72 {
		t.Errorf("body.top = %v, want 72", got)
	}
}

func TestResolve_OwnPropertyShadowsNamedNode(t *testing.T) {
	// The node's own "size" property must win over the sibling named "size".
	decoy := mustNode(t, "view", Config{Name: "size", Expressions: map[string]string{
		"width": "999",
	}})
	n := mustNode(t, "view", Config{Expressions: map[string]string{
		"size":  "42",
		"width": "size",
	}})
	mustNode(t, "column", Config{Children: []*Node{decoy, n}})

	if got := resolveNumber(t, n, "width"); got != 42 {
		t.Errorf("width = %v, want own property value 42", got)
	}
}

func TestResolve_StateAndConstantsChain(t *testing.T) {
	child := mustNode(t, "label", Config{Expressions: map[string]string{
		"top":   "offset + spacing.page",
		"width": "spacing.stack * 2",
	}})
	mustNode(t, "column", Config{
		State: map[string]any{"offset": 10},
		Constants: map[string]any{
			"spacing": map[string]any{"page": 16, "stack": 8},
		},
		Children: []*Node{child},
	})

	if got := resolveNumber(t, child, "top"); got != 26 {
		t.Errorf("top = %v, want 26", got)
	}
	if got := resolveNumber(t, child, "width"); got != 16 {
		t.Errorf("width = %v, want 16", got)
	}
}

func TestResolve_GlobalConstants(t *testing.T) {
	SetGlobalConstant("brandWidth", 320)
	defer delete(globalConstants, "brandWidth")

	n := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "brandWidth",
	}})
	if got := resolveNumber(t, n, "width"); got != 320 {
		t.Errorf("width = %v, want 320", got)
	}

	// A node-local constant with the same key shadows the global.
	local := mustNode(t, "view", Config{
		Constants:   map[string]any{"brandWidth": 100},
		Expressions: map[string]string{"width": "brandWidth"},
	})
	if got := resolveNumber(t, local, "width"); got != 100 {
		t.Errorf("width = %v, want local constant 100", got)
	}
}

func TestResolve_PercentAxis(t *testing.T) {
	child := mustNode(t, "view", Config{Expressions: map[string]string{
		"width":  "50%",
		"height": "50%",
		"top":    "10%",
	}})
	root := mustNode(t, "column", Config{Children: []*Node{child}})
	root.bounds = geometry.RectFromLTWH(0, 0, 400, 800)

	if got := resolveNumber(t, child, "width"); got != 200 {
		t.Errorf("width = %v, want 200 (50%% of parent width)", got)
	}
	if got := resolveNumber(t, child, "height"); got != 400 {
		t.Errorf("height = %v, want 400 (50%% of parent height)", got)
	}
	if got := resolveNumber(t, child, "top"); got != 80 {
		t.Errorf("top = %v, want 80 (10%% of parent height)", got)
	}
}

func TestResolve_BarePercent(t *testing.T) {
	root := mustNode(t, "column", Config{Expressions: map[string]string{
		"width":  "100%",
		"height": "100%",
	}})
	root.bounds = geometry.RectFromLTWH(0, 0, 400, 800)

	v, err := root.Resolve("width")
	if err != nil {
		t.Fatalf("Resolve(width): %v", err)
	}
	if num, _ := v.AsNumber(); num != 400 {
		t.Errorf("width = %v, want 400", num)
	}
	if got := resolveNumber(t, root, "height"); got != 800 {
		t.Errorf("height = %v, want 800", got)
	}
}

func TestResolve_CachesValues(t *testing.T) {
	n := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "20 + 22",
	}})
	ev := n.evaluator()

	if ev.cached(n, "width") {
		t.Fatal("value cached before first resolve")
	}
	resolveNumber(t, n, "width")
	if !ev.cached(n, "width") {
		t.Fatal("value not cached after resolve")
	}
}

func TestResolve_TransitiveInvalidation(t *testing.T) {
	c1 := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "base * 2",
	}})
	c2 := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "previous.width + 10",
	}})
	root := mustNode(t, "column", Config{
		State:    map[string]any{"base": 100},
		Children: []*Node{c1, c2},
	})

	if got := resolveNumber(t, c2, "width"); got != 210 {
		t.Fatalf("c2.width = %v, want 210", got)
	}
	ev := root.evaluator()
	if !ev.cached(c1, "width") || !ev.cached(c2, "width") {
		t.Fatal("expected both widths cached")
	}

	// Changing the state key must drop the direct dependent and, through
	// the sibling reference, the transitive one.
	root.SetState("base", 50)
	if ev.cached(c1, "width") {
		t.Error("c1.width still cached after state change")
	}
	if ev.cached(c2, "width") {
		t.Error("c2.width still cached after transitive invalidation")
	}

	if got := resolveNumber(t, c2, "width"); got != 110 {
		t.Errorf("c2.width = %v after state change, want 110", got)
	}
}

func TestResolve_InvalidationIsScoped(t *testing.T) {
	dependent := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "base",
	}})
	unrelated := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "7 * 6",
	}})
	root := mustNode(t, "column", Config{
		State:    map[string]any{"base": 1},
		Children: []*Node{dependent, unrelated},
	})

	resolveNumber(t, dependent, "width")
	resolveNumber(t, unrelated, "width")

	root.SetState("base", 2)
	ev := root.evaluator()
	if ev.cached(dependent, "width") {
		t.Error("dependent entry survived invalidation")
	}
	if !ev.cached(unrelated, "width") {
		t.Error("unrelated entry was dropped")
	}
}

func TestResolve_CycleDetection(t *testing.T) {
	a := mustNode(t, "view", Config{Name: "a", Expressions: map[string]string{
		"width": "b.width",
	}})
	b := mustNode(t, "view", Config{Name: "b", Expressions: map[string]string{
		"width": "a.width",
	}})
	mustNode(t, "column", Config{Children: []*Node{a, b}})

	for _, n := range []*Node{a, b} {
		_, err := n.Resolve("width")
		if err == nil {
			t.Fatalf("%s.width: expected cycle error", n.Path())
		}
		if err.Kind != errors.KindCycle {
			t.Errorf("%s.width: kind = %v, want %v", n.Path(), err.Kind, errors.KindCycle)
		}
		if !strings.Contains(err.Err.Error(), "->") {
			t.Errorf("%s.width: error %q should render the cycle chain", n.Path(), err.Err)
		}
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	n := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "width + 1",
	}})
	_, err := n.Resolve("width")
	if err == nil || err.Kind != errors.KindCycle {
		t.Fatalf("self-referential width: err = %v, want cycle", err)
	}
}

func TestResolve_FailureIsNotCached(t *testing.T) {
	n := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "ghost",
	}})
	_, err := n.Resolve("width")
	if err == nil || err.Kind != errors.KindSymbolNotFound {
		t.Fatalf("err = %v, want symbol not found", err)
	}
	if n.evaluator().cached(n, "width") {
		t.Fatal("failed resolution must not populate the cache")
	}

	if serr := n.SetExpression("width", "42"); serr != nil {
		t.Fatalf("SetExpression: %v", serr)
	}
	if got := resolveNumber(t, n, "width"); got != 42 {
		t.Errorf("width = %v after fixing the expression, want 42", got)
	}
}

func TestResolve_ErrorCarriesNodeAndExpression(t *testing.T) {
	child := mustNode(t, "label", Config{Name: "title", Expressions: map[string]string{
		"width": "ghost.width + 1",
	}})
	mustNode(t, "column", Config{Children: []*Node{child}})

	_, err := child.Resolve("width")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Node, "label") || !strings.Contains(err.Node, "#title") {
		t.Errorf("err.Node = %q, want the child's path", err.Node)
	}
	if err.Expression != "ghost.width + 1" {
		t.Errorf("err.Expression = %q", err.Expression)
	}
}

func TestResolve_TemplatePassthroughKeepsLiteral(t *testing.T) {
	message := "No layout XML file found for `Foo`"
	label := mustNode(t, "label", Config{Expressions: map[string]string{
		"text": "{error}",
	}})
	mustNode(t, "column", Config{
		Constants: map[string]any{"error": message},
		Children:  []*Node{label},
	})

	v, err := label.Resolve("text")
	if err != nil {
		t.Fatalf("Resolve(text): %v", err)
	}
	if got := v.AsString(); got != message {
		t.Errorf("text = %q, want the constant passed through unchanged", got)
	}
}

func TestAppendChild_InvalidatesSiblingLookups(t *testing.T) {
	first := mustNode(t, "view", Config{Expressions: map[string]string{
		"height": "100",
	}})
	second := mustNode(t, "view", Config{Expressions: map[string]string{
		"top": "previous.bottom",
	}})
	root := mustNode(t, "column", Config{Children: []*Node{first, second}})

	if got := resolveNumber(t, second, "top"); got != 100 {
		t.Fatalf("top = %v, want 100", got)
	}

	// Inserting a node re-routes "previous"; the whole cache drops.
	extra := mustNode(t, "view", Config{Expressions: map[string]string{
		"height": "5",
	}})
	root.AppendChild(extra)
	if root.evaluator().cached(second, "top") {
		t.Error("structure change left stale cache entries")
	}
}

func TestRemoveChild_ReturnsStandaloneNode(t *testing.T) {
	child := mustNode(t, "view", Config{Expressions: map[string]string{
		"width": "10",
	}})
	root := mustNode(t, "column", Config{Children: []*Node{child}})

	root.RemoveChild(child)
	if child.Parent() != nil {
		t.Error("removed child still has a parent")
	}
	if len(root.Children()) != 0 {
		t.Error("root still lists the removed child")
	}
	if got := resolveNumber(t, child, "width"); got != 10 {
		t.Errorf("standalone resolve = %v, want 10", got)
	}
}

func TestPath(t *testing.T) {
	inner := mustNode(t, "label", Config{Name: "title"})
	stack := mustNode(t, "stack", Config{Children: []*Node{
		mustNode(t, "view", Config{}),
		inner,
	}})
	root := mustNode(t, "root", Config{Children: []*Node{stack}})
	_ = root

	if got := inner.Path(); got != "root/stack[0]/label[1]#title" {
		t.Errorf("Path() = %q", got)
	}
}
