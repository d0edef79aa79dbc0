package style

import (
	"image/color"
	"testing"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

var civicSpace = []string{"Open", "Narrowed", "Obstructed", "Repressed", "Closed"}

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"color", Color, false},
		{"Grayscale", Grayscale, false},
		{"grey", Grayscale, false},
		{"sepia", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVariant(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidStyle) {
			t.Errorf("ParseVariant(%q) err = %v, want INVALID_STYLE", tt.in, err)
		}
	}
}

func TestSuffix(t *testing.T) {
	if Color.Suffix() != "-color" || Grayscale.Suffix() != "" {
		t.Errorf("suffixes = %q, %q", Color.Suffix(), Grayscale.Suffix())
	}
}

func TestGrayscaleNeverWhite(t *testing.T) {
	b, err := Resolve(Grayscale, DefaultParams(Grayscale))
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range b.Ordinal(civicSpace) {
		px := rgba(c)
		if px.R != px.G || px.G != px.B {
			t.Errorf("level %d = %v, not gray", i, px)
		}
		if px.R == 0xff || px.R == 0 {
			t.Errorf("level %d = %v, want strictly between black and white", i, px)
		}
	}
}

func TestOrdinalMonotone(t *testing.T) {
	for _, dir := range []Direction{Ascending, Descending} {
		b, err := Resolve(Grayscale, PaletteParams{Begin: 0.15, End: 0.85, Direction: dir})
		if err != nil {
			t.Fatal(err)
		}
		colors := b.Ordinal(civicSpace)
		for i := 1; i < len(colors); i++ {
			prev, cur := rgba(colors[i-1]).R, rgba(colors[i]).R
			if dir == Ascending && cur <= prev {
				t.Errorf("%s: level %d (%d) not lighter than %d (%d)", dir, i, cur, i-1, prev)
			}
			if dir == Descending && cur >= prev {
				t.Errorf("%s: level %d (%d) not darker than %d (%d)", dir, i, cur, i-1, prev)
			}
		}
	}
}

func TestColorEndpoints(t *testing.T) {
	b, err := Resolve(Color, DefaultParams(Color))
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba(b.Sequential(0)); got != (color.RGBA{0x44, 0x01, 0x54, 0xff}) {
		t.Errorf("Sequential(0) = %v, want viridis start", got)
	}
	if got := rgba(b.Sequential(1)); got != (color.RGBA{0xfd, 0xe7, 0x25, 0xff}) {
		t.Errorf("Sequential(1) = %v, want viridis end", got)
	}
	if n := len(b.Categorical(3)); n != 3 {
		t.Errorf("Categorical(3) returned %d colors", n)
	}
}

func TestLevel(t *testing.T) {
	b, err := Resolve(Color, PaletteParams{Begin: 0.1, End: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	ord := b.Ordinal(civicSpace)
	got, err := b.Level(civicSpace, "Repressed")
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if rgba(got) != rgba(ord[3]) {
		t.Errorf("Level(Repressed) = %v, want %v", got, ord[3])
	}

	got, err = b.Level(civicSpace, "Unknown")
	if !errors.Is(err, errors.ErrCodeUnmappedCategory) {
		t.Errorf("err = %v, want UNMAPPED_CATEGORY", err)
	}
	if rgba(got) != rgba(b.Missing()) {
		t.Errorf("unknown level fill = %v, want missing fill", got)
	}
}

func TestResolveInvalid(t *testing.T) {
	if _, err := Resolve(Color, PaletteParams{Begin: -0.1, End: 1}); !errors.Is(err, errors.ErrCodeInvalidStyle) {
		t.Errorf("err = %v, want INVALID_STYLE", err)
	}
	if _, err := Resolve("sepia", DefaultParams(Color)); !errors.Is(err, errors.ErrCodeInvalidStyle) {
		t.Errorf("err = %v, want INVALID_STYLE", err)
	}
}

func TestDashes(t *testing.T) {
	c, _ := Resolve(Color, DefaultParams(Color))
	g, _ := Resolve(Grayscale, DefaultParams(Grayscale))
	if c.Dashes(1) != nil {
		t.Error("color series should be solid")
	}
	if g.Dashes(0) != nil || g.Dashes(1) == nil {
		t.Error("grayscale series 0 should be solid and series 1 dashed")
	}
}
