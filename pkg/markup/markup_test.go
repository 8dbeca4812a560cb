package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-stencil/stencil/pkg/errors"
)

func TestParseDocument(t *testing.T) {
	doc := `<column name="root" width="100%" padding="16">
    <label name="title" text="Hello {user}" fontSize="24" />
    <row>
        <image source="'avatar.png'" width="40" />
        <label top="previous.bottom + 8">Welcome back</label>
    </row>
</column>`

	got, err := ParseDocument(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	want := &Spec{
		ViewType: "column",
		Name:     "root",
		Expressions: map[string]string{
			"width":   "100%",
			"padding": "16",
		},
		Children: []*Spec{
			{
				ViewType: "label",
				Name:     "title",
				Expressions: map[string]string{
					"text":     "Hello {user}",
					"fontSize": "24",
				},
			},
			{
				ViewType:    "row",
				Expressions: map[string]string{},
				Children: []*Spec{
					{
						ViewType: "image",
						Expressions: map[string]string{
							"source": "'avatar.png'",
							"width":  "40",
						},
					},
					{
						ViewType: "label",
						Expressions: map[string]string{
							"top":  "previous.bottom + 8",
							"text": "Welcome back",
						},
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spec tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocument_ExplicitTextWins(t *testing.T) {
	spec, err := ParseDocument(strings.NewReader(`<label text="'explicit'">ignored</label>`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if got := spec.Expressions["text"]; got != "'explicit'" {
		t.Errorf("text = %q, want the attribute to win over element content", got)
	}
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", "   "},
		{"two roots", "<a/><b/>"},
		{"malformed xml", "<a><b></a>"},
	}
	for _, tt := range tests {
		_, err := ParseDocument(strings.NewReader(tt.doc))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if err.Kind != errors.KindParse {
			t.Errorf("%s: kind = %v, want %v", tt.name, err.Kind, errors.KindParse)
		}
	}
}

func TestBuild(t *testing.T) {
	doc := `<column>
    <label name="title" height="40" />
    <label top="title.bottom + spacing" />
</column>`

	root, err := Load(strings.NewReader(doc), Options{
		Constants:    map[string]any{"spacing": 8},
		RelativeBase: "/layouts/home",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	second := root.Children()[1]
	v, rerr := second.Resolve("top")
	if rerr != nil {
		t.Fatalf("Resolve(top): %v", rerr)
	}
	if n, _ := v.AsNumber(); n != 48 {
		t.Errorf("top = %v, want 48", n)
	}

	// The source directory is published as a constant on the root.
	dir := root.Children()[0]
	if serr := dir.SetExpression("caption", "sourceDirectory"); serr != nil {
		t.Fatalf("SetExpression: %v", serr)
	}
	dv, derr := dir.Resolve("caption")
	if derr != nil {
		t.Fatalf("Resolve(caption): %v", derr)
	}
	if got := dv.AsString(); got != "/layouts/home" {
		t.Errorf("sourceDirectory = %q", got)
	}
}

func TestLoad_BadExpressionNamesTheNode(t *testing.T) {
	doc := `<column><label name="title" width="1 +" /></column>`
	_, err := Load(strings.NewReader(doc), Options{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if err.Kind != errors.KindParse {
		t.Errorf("kind = %v, want %v", err.Kind, errors.KindParse)
	}
	if !strings.Contains(err.Node, "label#title") {
		t.Errorf("err.Node = %q, want it to name the offending node", err.Node)
	}
}
