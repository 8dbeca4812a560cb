package geometry

import "testing"

func TestRectFromLTWH(t *testing.T) {
	r := RectFromLTWH(10, 20, 100, 50)
	if r.Width() != 100 || r.Height() != 50 {
		t.Errorf("size = %vx%v, want 100x50", r.Width(), r.Height())
	}
	if r.Right != 110 || r.Bottom != 70 {
		t.Errorf("right/bottom = %v/%v, want 110/70", r.Right, r.Bottom)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#f00", RGB(255, 0, 0)},
		{"#f00c", RGBA8(255, 0, 0, 0xcc)},
		{"#336699", RGB(0x33, 0x66, 0x99)},
		{"#33669980", RGBA8(0x33, 0x66, 0x99, 0x80)},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if err != nil {
			t.Fatalf("ParseHexColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"#", "#12345", "#gggggg"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("ParseHexColor(%q): expected error", bad)
		}
	}
}

func TestNamedColor(t *testing.T) {
	c, ok := NamedColor("RebeccaPurple")
	if !ok {
		t.Fatal("rebeccapurple should resolve case-insensitively")
	}
	if c != RGB(0x66, 0x33, 0x99) {
		t.Errorf("rebeccapurple = %v", c)
	}
	if _, ok := NamedColor("notacolor"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestColorAlpha(t *testing.T) {
	c := RGB(10, 20, 30)
	if c.Alpha() != 1 {
		t.Errorf("opaque alpha = %v, want 1", c.Alpha())
	}
	half := c.WithAlpha(0.5)
	if a := half.Alpha(); a < 0.49 || a > 0.51 {
		t.Errorf("half alpha = %v", a)
	}
	r, g, b, _ := half.RGBAF()
	if r != 10.0/255 || g != 20.0/255 || b != 30.0/255 {
		t.Errorf("RGBAF channels changed: %v %v %v", r, g, b)
	}
}
