// Package wordcount counts the words of a rendered manuscript against a
// target length.
//
// The input is the HTML produced by the document build. Figures, tables,
// math and scripts do not count toward the limit, and neither does the
// reference list when [Options.DropReferences] is set. Words are found with
// Unicode word segmentation (UAX #29), so "civil-society" counts as two words
// and punctuation counts as none.
package wordcount

import (
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// DefaultTarget is the journal's word limit.
const DefaultTarget = 10000

// Options configure counting.
type Options struct {
	// Target is the word limit. Zero means DefaultTarget.
	Target int

	// DropReferences skips the bibliography (pandoc's #refs div and any
	// element with class "references").
	DropReferences bool

	// ExcludeClasses lists extra class names whose elements are skipped.
	ExcludeClasses []string
}

func (o *Options) setDefaults() {
	if o.Target <= 0 {
		o.Target = DefaultTarget
	}
}

// Report is the result of a count.
type Report struct {
	Words  int `json:"words"`
	Target int `json:"target"`

	// Remaining is Target minus Words; negative when over the limit.
	Remaining int `json:"remaining"`
}

// Over reports whether the document exceeds the target.
func (r Report) Over() bool { return r.Remaining < 0 }

// skipped holds elements that never count.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Figure:   true,
	atom.Table:    true,
	atom.Math:     true,
	atom.Noscript: true,
	atom.Template: true,
}

// CountFile counts the words in an HTML file.
func CountFile(path string, opts Options) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, errors.Wrap(errors.ErrCodeDataNotFound, err, "wordcount: open %s", path)
	}
	defer f.Close()
	return Count(f, opts)
}

// Count parses HTML from r and counts the words outside excluded elements.
func Count(r io.Reader, opts Options) (Report, error) {
	opts.setDefaults()
	doc, err := html.Parse(r)
	if err != nil {
		return Report{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "wordcount: parse html")
	}

	excluded := append([]string{"math"}, opts.ExcludeClasses...)
	var words int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			words += Words(n.Data)
			return
		case html.ElementNode:
			if skipped[n.DataAtom] || hasClass(n, excluded...) {
				return
			}
			if opts.DropReferences && (attr(n, "id") == "refs" || hasClass(n, "references")) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return Report{Words: words, Target: opts.Target, Remaining: opts.Target - words}, nil
}

// Words counts the word segments of s that contain a letter or digit.
func Words(s string) int {
	n := 0
	state := -1
	var word string
	for len(s) > 0 {
		word, s, state = uniseg.FirstWordInString(s, state)
		if strings.IndexFunc(word, isWordRune) >= 0 {
			n++
		}
	}
	return n
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, classes ...string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if slices.Contains(classes, c) {
			return true
		}
	}
	return false
}
