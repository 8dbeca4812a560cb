package expr

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/go-stencil/stencil/pkg/errors"
)

func TestParse_Symbols(t *testing.T) {
	tests := []struct {
		source string
		want   [][]string
	}{
		{"previous.bottom + 30", [][]string{{"previous", "bottom"}}},
		{"width", [][]string{{"width"}}},
		{"100% - 20", nil},
		{"header.height + header.top", [][]string{{"header", "height"}, {"header", "top"}}},
		{"min(a, b.c)", [][]string{{"a"}, {"b", "c"}}},
		{"cond ? x : y", [][]string{{"cond"}, {"x"}, {"y"}}},
	}

	for _, tt := range tests {
		e, err := Parse(tt.source)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.source, err)
		}
		got := e.Symbols()
		if len(got) != len(tt.want) {
			t.Fatalf("Parse(%q): symbols = %v, want %v", tt.source, got, tt.want)
		}
		for i := range got {
			if strings.Join(got[i], ".") != strings.Join(tt.want[i], ".") {
				t.Errorf("Parse(%q): symbol[%d] = %v, want %v", tt.source, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"50% - 10", "(50% - 10)"},
		{"-a.b + 1", "((-a.b) + 1)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a && b || c", "((a && b) || c)"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
	}

	for _, tt := range tests {
		e, err := Parse(tt.source)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.source, err)
		}
		if got := e.root.String(); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.source, got, tt.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		source     string
		wantOffset int
	}{
		{"1 +", 3},         // dangling operator
		{"(1 + 2", 6},      // unclosed paren
		{"1 2", 2},         // trailing junk
		{"nosuchfn(1)", 8}, // unknown function
		{"min()", 4},       // too few args
		{"abs(1, 2)", 8},   // too many args
		{"a ? b", 5},       // missing colon
		{"#zz", 0},         // bad hex color
	}

	for _, tt := range tests {
		_, err := Parse(tt.source)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", tt.source)
		}
		if err.Kind != errors.KindParse {
			t.Errorf("Parse(%q): kind = %v, want %v", tt.source, err.Kind, errors.KindParse)
		}
		if err.Expression != tt.source {
			t.Errorf("Parse(%q): expression = %q, want source", tt.source, err.Expression)
		}
		var oe *offsetError
		if !stderrors.As(err.Err, &oe) {
			t.Fatalf("Parse(%q): error %v carries no offset", tt.source, err)
		}
		if oe.Offset() != tt.wantOffset {
			t.Errorf("Parse(%q): offset = %d, want %d", tt.source, oe.Offset(), tt.wantOffset)
		}
	}
}

func TestParse_DotRequiresIdentifier(t *testing.T) {
	if _, err := Parse("previous.5"); err == nil {
		t.Error("expected error for numeric path segment")
	}
	if _, err := Parse("(1 + 2).width"); err == nil {
		t.Error("expected error for '.' on a non-symbol")
	}
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		source      string
		wantSymbols int
		template    bool
	}{
		{"Hello {name}", 1, true},
		{"{count}", 1, true},
		{"plain text", 0, true},
		{"{{literal}} braces", 0, true},
		{"{a} and {b.c}", 2, true},
		{"{'}' == x ? 'y' : 'n'}", 1, true}, // brace inside quotes
	}

	for _, tt := range tests {
		e, err := ParseTemplate(tt.source)
		if err != nil {
			t.Fatalf("ParseTemplate(%q): %v", tt.source, err)
		}
		if !e.IsTemplate() {
			t.Errorf("ParseTemplate(%q): IsTemplate() = false", tt.source)
		}
		if got := len(e.Symbols()); got != tt.wantSymbols {
			t.Errorf("ParseTemplate(%q): %d symbols, want %d", tt.source, got, tt.wantSymbols)
		}
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	for _, source := range []string{"open {brace", "stray } brace", "{1 +} done"} {
		if _, err := ParseTemplate(source); err == nil {
			t.Errorf("ParseTemplate(%q): expected error", source)
		}
	}
}
