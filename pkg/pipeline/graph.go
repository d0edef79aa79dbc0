package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/figures"
)

// Graph returns the catalog's dependency graph in Graphviz DOT: one node per
// input file, figure and table, with an edge from each input to every entry
// that reads it. Output order follows the catalog, so equal catalogs give
// identical DOT.
func Graph(figs []*figures.Figure, tables []*figures.Table) string {
	var buf bytes.Buffer
	buf.WriteString("digraph paperfigs {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("\n")

	var inputs []string
	for _, f := range figs {
		inputs = appendNew(inputs, f.Inputs...)
	}
	for _, t := range tables {
		inputs = appendNew(inputs, t.Inputs...)
	}
	for _, name := range inputs {
		label := name
		if in, ok := figures.InputByName(name); ok {
			label = in.File
		}
		fmt.Fprintf(&buf, "  %q [shape=note, label=%q];\n", inputNode(name), label)
	}
	for _, f := range figs {
		fmt.Fprintf(&buf, "  %q [shape=box, style=\"rounded,filled\", fillcolor=\"#e8f0fe\", label=%q];\n",
			figureNode(f.Name), f.Name)
	}
	for _, t := range tables {
		fmt.Fprintf(&buf, "  %q [shape=box, style=filled, fillcolor=\"#f1f3f4\", label=%q];\n",
			tableNode(t.Name), "tbl-"+t.Name)
	}

	buf.WriteString("\n")
	for _, f := range figs {
		for _, in := range f.Inputs {
			fmt.Fprintf(&buf, "  %q -> %q;\n", inputNode(in), figureNode(f.Name))
		}
	}
	for _, t := range tables {
		for _, in := range t.Inputs {
			fmt.Fprintf(&buf, "  %q -> %q;\n", inputNode(in), tableNode(t.Name))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func inputNode(name string) string  { return "input:" + name }
func figureNode(name string) string { return "figure:" + name }
func tableNode(name string) string  { return "table:" + name }

func appendNew(list []string, items ...string) []string {
	for _, s := range items {
		if !slices.Contains(list, s) {
			list = append(list, s)
		}
	}
	return list
}

// RenderGraphSVG lays out a DOT graph with the embedded Graphviz.
func RenderGraphSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render graph")
	}
	return buf.Bytes(), nil
}
