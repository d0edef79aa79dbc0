package table

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
)

func surplusTable(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New("finances",
		dataset.NewIntColumn("year", []int64{2015, 2016, 2017}, nil),
		dataset.NewFloatColumn("surplus", []float64{20, -10, math.NaN()}, nil),
	)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		f    Formatter
		in   float64
		want string
	}{
		{"currency", FormatCurrency, 1250, "$1,250"},
		{"negative currency", FormatCurrency, -1250.4, "-$1,250"},
		{"percent", FormatPercent, 0.25, "25.0%"},
		{"count", FormatCount, 7_900_000_000, "7,900,000,000"},
		{"decimal", FormatDecimal(2), 1234.5, "1,234.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyNullPlaceholder(t *testing.T) {
	d, err := Apply(surplusTable(t), "surplus", FormatCurrency)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := d.Column("surplus")
	var got []string
	for i := range c.Len() {
		s, _ := c.Str(i)
		got = append(got, s)
	}
	if diff := cmp.Diff([]string{"$20", "-$10", Placeholder}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestApplyRejectsText(t *testing.T) {
	d, _ := dataset.New("x", dataset.NewStringColumn("name", []string{"a"}, nil))
	if _, err := Apply(d, "name", FormatCount); !errors.Is(err, errors.ErrCodeSchemaMismatch) {
		t.Errorf("err = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestFormatGrid(t *testing.T) {
	d, err := Apply(surplusTable(t), "surplus", FormatCurrency)
	if err != nil {
		t.Fatal(err)
	}
	block, err := Format(d, Hints{
		Caption: "Annual surplus",
		Headers: map[string]string{"year": "Year", "surplus": "Surplus"},
		Align:   map[string]Align{"year": AlignLeft},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `+------+---------+
| Year | Surplus |
+:=====+========:+
| 2015 |     $20 |
+------+---------+
| 2016 |    -$10 |
+------+---------+
| 2017 |       – |
+------+---------+

Table: Annual surplus
`
	if diff := cmp.Diff(want, block.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFormatWideCharacters(t *testing.T) {
	d, _ := dataset.New("x",
		dataset.NewStringColumn("country", []string{"日本", "Peru"}, nil),
	)
	block, err := Format(d, Hints{})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(block.String()), "\n")
	if !strings.HasPrefix(lines[3], "| 日本    |") {
		t.Errorf("wide row not padded by display width: %q", lines[3])
	}
}

func TestFormatPages(t *testing.T) {
	block, err := Format(surplusTable(t), Hints{Caption: "Surplus", PageRows: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(block.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(block.Pages))
	}
	out := block.String()
	if !strings.Contains(out, "Table: Surplus\n") || !strings.Contains(out, "Table: Surplus (continued)\n") {
		t.Errorf("captions missing:\n%s", out)
	}
}

func TestFormatMissingColumn(t *testing.T) {
	_, err := Format(surplusTable(t), Hints{Columns: []string{"year", "income"}})
	if !errors.Is(err, errors.ErrCodeSchemaMismatch) {
		t.Fatalf("err = %v, want SCHEMA_MISMATCH", err)
	}
	if !strings.Contains(err.Error(), "finances") {
		t.Errorf("error %q does not name the dataset", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	block, _ := Format(surplusTable(t), Hints{Caption: "Surplus"})

	path, written, err := WriteFile(dir, "finances", block)
	if err != nil || !written {
		t.Fatalf("WriteFile = %v, %v", written, err)
	}
	if filepath.Base(path) != "tbl-finances.md" {
		t.Errorf("path = %s", path)
	}
	got, _ := os.ReadFile(path)
	if string(got) != block.String() {
		t.Error("file content differs from block")
	}

	if _, written, _ := WriteFile(dir, "finances", block); written {
		t.Error("identical content was rewritten")
	}
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	path, _, err := WriteXLSX(dir, "finances", surplusTable(t), Hints{Headers: map[string]string{"year": "Year"}})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "tbl-finances.xlsx" {
		t.Errorf("path = %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("finances")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"Year", "surplus"}, {"2015", "20"}, {"2016", "-10"}, {"2017"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	panes, err := f.GetPanes("finances")
	if err != nil {
		t.Fatal(err)
	}
	if !panes.Freeze || panes.YSplit != 1 || panes.TopLeftCell != "A2" {
		t.Errorf("panes = %+v, want header row frozen", panes)
	}
	for _, col := range []string{"A", "B"} {
		if w, err := f.GetColWidth("finances", col); err != nil || w != xlsxColWidth {
			t.Errorf("width of %s = %g, %v; want %d", col, w, err, xlsxColWidth)
		}
	}
}
