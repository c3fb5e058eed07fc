// Package richtext flattens Markdown catalog descriptions into plain
// paragraphs the PDF renderer can lay out with core fonts.
package richtext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrFlatten indicates the description could not be parsed.
var ErrFlatten = errors.New("rich text flattening failed")

// Kind classifies a paragraph for styling.
type Kind int

const (
	KindBody Kind = iota
	KindHeading
	KindBullet
)

// Paragraph is one block of plain text. Text may contain "\n" for hard
// line breaks; all other whitespace is collapsed.
type Paragraph struct {
	Kind Kind
	Text string
}

// Flattener turns rich text into paragraphs.
type Flattener interface {
	Flatten(ctx context.Context, content string) ([]Paragraph, error)
}

// GoldmarkFlattener parses Markdown (GFM) with goldmark and walks the AST.
type GoldmarkFlattener struct {
	md goldmark.Markdown
}

// NewGoldmarkFlattener creates a GoldmarkFlattener with GFM extensions.
func NewGoldmarkFlattener() *GoldmarkFlattener {
	return &GoldmarkFlattener{
		md: goldmark.New(goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, autolinks, task lists
		)),
	}
}

// Flatten parses content and returns its paragraphs in document order.
// Emphasis, links, and code spans keep their text; images keep their alt
// text; raw HTML is dropped. Supports context cancellation via goroutine +
// select since goldmark does not take a context.
func (f *GoldmarkFlattener) Flatten(ctx context.Context, content string) ([]Paragraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	type result struct {
		paras []Paragraph
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrFlatten, r)}
			}
		}()
		src := []byte(normalizeLineEndings(content))
		doc := f.md.Parser().Parse(text.NewReader(src))
		w := &walker{src: src}
		w.block(doc)
		done <- result{paras: w.out}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.paras, r.err
	}
}

// PlainText joins paragraphs with blank lines.
func PlainText(paras []Paragraph) string {
	parts := make([]string, 0, len(paras))
	for _, p := range paras {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

type walker struct {
	src []byte
	out []Paragraph
}

// block visits block-level nodes and emits one paragraph per text block.
func (w *walker) block(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Heading:
			w.emit(KindHeading, w.inline(node))
		case *ast.Paragraph, *ast.TextBlock:
			w.emit(w.kindFor(node), w.inline(node))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			w.emit(KindBody, w.lines(node))
		case *extast.Table:
			w.table(node)
		case *ast.HTMLBlock, *ast.ThematicBreak:
			// no text
		default:
			w.block(node)
		}
	}
}

// kindFor marks the first text block of a list item as a bullet.
func (w *walker) kindFor(n ast.Node) Kind {
	if item, ok := n.Parent().(*ast.ListItem); ok && item.FirstChild() == n {
		return KindBullet
	}
	return KindBody
}

func (w *walker) table(t *extast.Table) {
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if s := w.inline(cell); s != "" {
				cells = append(cells, s)
			}
		}
		w.emit(KindBody, strings.Join(cells, " | "))
	}
}

func (w *walker) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// inline concatenates the text under n.
func (w *walker) inline(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(w.src))
			switch {
			case node.HardLineBreak():
				b.WriteByte('\n')
			case node.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(w.src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return collapseSpaces(b.String())
}

func (w *walker) emit(kind Kind, s string) {
	if s = strings.TrimSpace(s); s != "" {
		w.out = append(w.out, Paragraph{Kind: kind, Text: s})
	}
}

// collapseSpaces squeezes runs of spaces and tabs but keeps newlines.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Compile-time interface check.
var _ Flattener = (*GoldmarkFlattener)(nil)
