package layout

import (
	"testing"

	"github.com/go-stencil/stencil/pkg/backend"
	"github.com/go-stencil/stencil/pkg/backend/headless"
	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
)

func newWindow(t *testing.T, b *headless.Backend) *headless.View {
	t.Helper()
	v, err := b.Create("window")
	if err != nil {
		t.Fatalf("Create(window): %v", err)
	}
	return v.(*headless.View)
}

func buildBanner(t *testing.T) (*Node, *Node) {
	t.Helper()
	title := mustNode(t, "label", Config{Name: "title", Expressions: map[string]string{
		"height": "40",
		"text":   "{count} items",
		"color":  "'#336699'",
	}})
	root := mustNode(t, "column", Config{
		State: map[string]any{"count": 3},
		Expressions: map[string]string{
			"width":  "100%",
			"height": "100%",
		},
		Children: []*Node{title},
	})
	return root, title
}

func TestMount_AppliesFramesAndProperties(t *testing.T) {
	b := headless.New()
	window := newWindow(t, b)
	root, title := buildBanner(t)
	root.SetFactory(b)

	bounds := geometry.RectFromLTWH(0, 0, 400, 800)
	if err := root.Mount(window, bounds); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !root.Mounted() || !title.Mounted() {
		t.Fatal("nodes should report mounted")
	}
	if len(window.Children) != 1 {
		t.Fatalf("window has %d children, want 1", len(window.Children))
	}

	rootView := root.View().(*headless.View)
	if rootView.Frame != bounds {
		t.Errorf("root frame = %v, want %v", rootView.Frame, bounds)
	}

	titleView := title.View().(*headless.View)
	if got := titleView.Frame; got != geometry.RectFromLTWH(0, 0, 400, 40) {
		t.Errorf("title frame = %v", got)
	}
	if got := titleView.Props["text"].AsString(); got != "3 items" {
		t.Errorf("text = %q, want %q", got, "3 items")
	}
	if got := titleView.Props["color"].AsString(); got != "#336699" {
		t.Errorf("color = %q", got)
	}
}

func TestMount_FailsOnNonRoot(t *testing.T) {
	root, title := buildBanner(t)
	root.SetFactory(headless.New())
	err := title.Mount(nil, geometry.RectFromLTWH(0, 0, 10, 10))
	if err == nil || err.Kind != errors.KindMount {
		t.Fatalf("err = %v, want mount error", err)
	}
}

func TestMount_ResolutionFailureIsAtomic(t *testing.T) {
	b := headless.New()
	window := newWindow(t, b)
	title := mustNode(t, "label", Config{Expressions: map[string]string{
		"width": "ghost.width",
	}})
	root := mustNode(t, "column", Config{Children: []*Node{title}})
	root.SetFactory(b)

	err := root.Mount(window, geometry.RectFromLTWH(0, 0, 100, 100))
	if err == nil {
		t.Fatal("expected mount failure")
	}
	if root.Mounted() || title.Mounted() {
		t.Error("failed mount left nodes marked mounted")
	}
	if len(window.Children) != 0 {
		t.Error("failed mount left views attached to the container")
	}

	// Fixing the expression makes the same tree mountable; the view created
	// during the failed attempt is reused.
	created := b.Created()
	if serr := title.SetExpression("width", "50"); serr != nil {
		t.Fatalf("SetExpression: %v", serr)
	}
	if err := root.Mount(window, geometry.RectFromLTWH(0, 0, 100, 100)); err != nil {
		t.Fatalf("remount: %v", err)
	}
	if len(window.Children) != 1 {
		t.Error("remount did not attach the root view")
	}
	if b.Created() > created+1 {
		t.Errorf("remount created %d new views, want at most 1", b.Created()-created)
	}
}

func TestMount_RejectedPropertyIsAtomic(t *testing.T) {
	b := headless.New()
	b.Reject("label", "color")
	window := newWindow(t, b)
	root, _ := buildBanner(t)
	root.SetFactory(b)

	err := root.Mount(window, geometry.RectFromLTWH(0, 0, 100, 100))
	if err == nil {
		t.Fatal("expected mount failure")
	}
	if err.Kind != errors.KindMount {
		t.Errorf("kind = %v, want %v", err.Kind, errors.KindMount)
	}
	if err.Expression != "'#336699'" {
		t.Errorf("err.Expression = %q", err.Expression)
	}
	if len(window.Children) != 0 {
		t.Error("failed mount left views attached to the container")
	}
	if root.Mounted() {
		t.Error("failed mount left the root marked mounted")
	}
}

func TestUpdate_WritesOnlyChangedValues(t *testing.T) {
	b := headless.New()
	window := newWindow(t, b)
	root, title := buildBanner(t)
	root.SetFactory(b)

	if err := root.Mount(window, geometry.RectFromLTWH(0, 0, 400, 800)); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	titleView := title.View().(*headless.View)
	if titleView.Writes["text"] != 1 || titleView.Writes["color"] != 1 {
		t.Fatalf("initial writes = %v", titleView.Writes)
	}

	root.SetState("count", 4)
	if err := root.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := titleView.Props["text"].AsString(); got != "4 items" {
		t.Errorf("text = %q after update", got)
	}
	if titleView.Writes["text"] != 2 {
		t.Errorf("text writes = %d, want 2", titleView.Writes["text"])
	}
	// Unchanged values are not re-applied.
	if titleView.Writes["color"] != 1 {
		t.Errorf("color writes = %d, want 1", titleView.Writes["color"])
	}
	if titleView.FrameWrites != 1 {
		t.Errorf("frame writes = %d, want 1", titleView.FrameWrites)
	}
}

func TestUpdate_ObjectValuedState(t *testing.T) {
	b := headless.New()
	window := newWindow(t, b)
	badge := mustNode(t, "label", Config{Expressions: map[string]string{
		"text": "{data}",
	}})
	root := mustNode(t, "column", Config{
		State: map[string]any{"data": map[string]any{"a": 1}},
		Expressions: map[string]string{
			"width":  "100%",
			"height": "100%",
		},
		Children: []*Node{badge},
	})
	root.SetFactory(b)

	if err := root.Mount(window, geometry.RectFromLTWH(0, 0, 400, 800)); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	// Map-valued state passes through the single-substitution template
	// unchanged; updating it must re-apply, not crash on comparison.
	root.SetState("data", map[string]any{"a": 2})
	if err := root.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	badgeView := badge.View().(*headless.View)
	if badgeView.Writes["text"] != 2 {
		t.Errorf("text writes = %d, want 2", badgeView.Writes["text"])
	}

	root.SetState("data", map[string]any{"a": 2})
	if err := root.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if badgeView.Writes["text"] != 2 {
		t.Errorf("text writes = %d after equal update, want 2", badgeView.Writes["text"])
	}
}

func TestUpdate_RequiresMount(t *testing.T) {
	root, _ := buildBanner(t)
	if err := root.Update(); err == nil || err.Kind != errors.KindMount {
		t.Fatalf("err = %v, want mount error", err)
	}
}

func TestUnmount_PreservesDefinitionAndReusesViews(t *testing.T) {
	b := headless.New()
	window := newWindow(t, b)
	root, title := buildBanner(t)
	root.SetFactory(b)
	bounds := geometry.RectFromLTWH(0, 0, 400, 800)

	if err := root.Mount(window, bounds); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	created := b.Created()

	root.Unmount()
	if root.Mounted() || title.Mounted() {
		t.Error("nodes still mounted after Unmount")
	}
	if len(window.Children) != 0 {
		t.Error("views still attached after Unmount")
	}
	if _, ok := root.State("count"); !ok {
		t.Error("state lost on unmount")
	}
	if title.Expression("text") == nil {
		t.Error("expressions lost on unmount")
	}

	if err := root.Mount(window, bounds); err != nil {
		t.Fatalf("remount: %v", err)
	}
	if b.Created() != created {
		t.Errorf("remount created new views: %d -> %d", created, b.Created())
	}
	if got := title.View().(*headless.View).Props["text"].AsString(); got != "3 items" {
		t.Errorf("text after remount = %q", got)
	}
}

func TestMount_UsesDefaultFactory(t *testing.T) {
	b := headless.New()
	backend.SetDefaultFactory(b)
	defer backend.SetDefaultFactory(nil)

	root, _ := buildBanner(t)
	if err := root.Mount(nil, geometry.RectFromLTWH(0, 0, 10, 10)); err != nil {
		t.Fatalf("Mount with default factory: %v", err)
	}
	if b.Created() == 0 {
		t.Error("default factory was not consulted")
	}
}
