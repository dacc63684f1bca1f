// Package notes holds the text helpers shared by journal and compendium
// entries.
package notes

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	DefaultSnipLength = 160
	DefaultSuffix     = "..."
)

type snipOptions struct {
	maxLength     int
	preserveWords bool
	suffix        string
}

type SnipOption func(*snipOptions)

func WithMaxLength(n int) SnipOption {
	return func(o *snipOptions) {
		o.maxLength = n
	}
}

// WithPreserveWords controls whether truncation backs up to a word boundary.
func WithPreserveWords(preserve bool) SnipOption {
	return func(o *snipOptions) {
		o.preserveWords = preserve
	}
}

func WithSuffix(suffix string) SnipOption {
	return func(o *snipOptions) {
		o.suffix = suffix
	}
}

// Snip turns markdown into a plain-text preview of at most maxLength runes
// plus the suffix. Text that already fits is returned without a suffix.
func Snip(md string, options ...SnipOption) string {
	opts := snipOptions{maxLength: DefaultSnipLength, preserveWords: true, suffix: DefaultSuffix}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.maxLength <= 0 {
		opts.maxLength = DefaultSnipLength
	}

	stripped := []rune(PlainText(md))
	if len(stripped) <= opts.maxLength {
		return string(stripped)
	}

	truncated := stripped[:opts.maxLength]
	if opts.preserveWords {
		boundary := lastBoundary(truncated)
		if float64(boundary) > float64(opts.maxLength)*0.75 {
			truncated = truncated[:boundary]
		}
	}
	return strings.TrimSpace(string(truncated)) + opts.suffix
}

func lastBoundary(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}

// PlainText strips markdown syntax, keeping the readable text, link labels
// and image alt text. Raw HTML is dropped.
func PlainText(md string) string {
	source := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && n.NextSibling() != nil {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(source))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				b.Write(segment.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
