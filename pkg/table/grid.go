package table

import (
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/paperfigs/pkg/dataset"
)

// Align is a column justification.
type Align int

const (
	// AlignAuto right-aligns numeric columns and left-aligns the rest.
	AlignAuto Align = iota
	AlignLeft
	AlignRight
	AlignCenter
)

// Hints control how a table is laid out.
type Hints struct {
	Caption string

	// Columns selects and orders the columns. Empty means all.
	Columns []string

	// Headers maps column names to display headers.
	Headers map[string]string

	Align map[string]Align

	// PageRows splits the table into pages of at most this many rows, each a
	// separate grid table. Zero disables pagination.
	PageRows int
}

// TextBlock is a formatted table.
type TextBlock struct {
	Caption string
	Pages   []string
}

// String returns the pages joined by blank lines, each followed by its
// caption line.
func (b TextBlock) String() string {
	var sb strings.Builder
	for i, p := range b.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p)
		if b.Caption != "" {
			sb.WriteString("\nTable: ")
			sb.WriteString(b.Caption)
			if i > 0 {
				sb.WriteString(" (continued)")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type gridColumn struct {
	header string
	align  Align
	cells  []string
	width  int
}

// Format lays out t as one or more pandoc grid tables. A column named in
// hints but missing from t fails with SCHEMA_MISMATCH.
func Format(t *dataset.Dataset, hints Hints) (TextBlock, error) {
	names := hints.Columns
	if len(names) == 0 {
		names = t.ColumnNames()
	}

	cols := make([]*gridColumn, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return TextBlock{}, err
		}
		gc := &gridColumn{header: name, align: hints.Align[name], cells: make([]string, t.Len())}
		if h, ok := hints.Headers[name]; ok {
			gc.header = h
		}
		if gc.align == AlignAuto {
			gc.align = autoAlign(c)
		}
		for r := range t.Len() {
			gc.cells[r] = cellText(c, r)
		}
		gc.width = displayWidth(gc.header)
		for _, s := range gc.cells {
			gc.width = max(gc.width, displayWidth(s))
		}
		cols[i] = gc
	}

	block := TextBlock{Caption: hints.Caption}
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	if hints.PageRows <= 0 || len(rows) == 0 {
		block.Pages = []string{grid(cols, rows)}
		return block, nil
	}
	for page := range slices.Chunk(rows, hints.PageRows) {
		block.Pages = append(block.Pages, grid(cols, page))
	}
	return block, nil
}

func autoAlign(c *dataset.Column) Align {
	if c.Kind().Numeric() {
		return AlignRight
	}
	// Pre-formatted numbers arrive as strings.
	for i := range c.Len() {
		s, ok := c.Str(i)
		if !ok || s == Placeholder {
			continue
		}
		if !looksNumeric(s) {
			return AlignLeft
		}
	}
	return AlignRight
}

func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return false
		}
	}
	return true
}

func cellText(c *dataset.Column, r int) string {
	s, ok := c.Key(r)
	if !ok {
		return Placeholder
	}
	// Cells cannot span lines in this layout.
	return strings.Join(strings.Fields(s), " ")
}

func displayWidth(s string) int { return runewidth.StringWidth(s) }

func grid(cols []*gridColumn, rows []int) string {
	var sb strings.Builder
	rule := func(fill byte, marks bool) {
		sb.WriteByte('+')
		for _, c := range cols {
			seg := []byte(strings.Repeat(string(fill), c.width+2))
			if marks {
				if c.align == AlignLeft || c.align == AlignCenter {
					seg[0] = ':'
				}
				if c.align == AlignRight || c.align == AlignCenter {
					seg[len(seg)-1] = ':'
				}
			}
			sb.Write(seg)
			sb.WriteByte('+')
		}
		sb.WriteByte('\n')
	}
	line := func(cell func(c *gridColumn) string) {
		sb.WriteByte('|')
		for _, c := range cols {
			sb.WriteByte(' ')
			sb.WriteString(pad(cell(c), c.width, c.align))
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	rule('-', false)
	line(func(c *gridColumn) string { return c.header })
	rule('=', true)
	for _, r := range rows {
		line(func(c *gridColumn) string { return c.cells[r] })
		rule('-', false)
	}
	return sb.String()
}

func pad(s string, width int, a Align) string {
	switch a {
	case AlignRight:
		return runewidth.FillLeft(s, width)
	case AlignCenter:
		left := (width - displayWidth(s)) / 2
		return runewidth.FillRight(strings.Repeat(" ", left)+s, width)
	default:
		return runewidth.FillRight(s, width)
	}
}
