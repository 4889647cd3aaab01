// Package ui renders contexts and search results for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// snippetLength is how much context content a result row shows.
const snippetLength = 120

// Renderer writes human-readable output, styled when the destination is a
// TTY and plain otherwise.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for the writer. Color is enabled only
// when the writer is a terminal and NO_COLOR is unset.
func NewRenderer(out io.Writer) *Renderer {
	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}
	return &Renderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Context renders a single context in full.
func (r *Renderer) Context(c domain.Context) {
	fmt.Fprintln(r.out, r.styles.Header.Render(c.ID))
	if c.Metadata.Source != "" {
		fmt.Fprintf(r.out, "%s %s\n", r.styles.Label.Render("source:"), c.Metadata.Source)
	}
	if len(c.Metadata.Tags) > 0 {
		fmt.Fprintf(r.out, "%s %s\n", r.styles.Label.Render("tags:"), strings.Join(c.Metadata.Tags, ", "))
	}
	fmt.Fprintf(r.out, "%s %s\n", r.styles.Label.Render("created:"), c.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, c.Content)
}

// ContextList renders contexts as one row each.
func (r *Renderer) ContextList(contexts []domain.Context) {
	if len(contexts) == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("no contexts"))
		return
	}
	for _, c := range contexts {
		tags := ""
		if len(c.Metadata.Tags) > 0 {
			tags = " [" + strings.Join(c.Metadata.Tags, ",") + "]"
		}
		fmt.Fprintf(r.out, "%s%s  %s\n",
			r.styles.Header.Render(c.ID),
			r.styles.Label.Render(tags),
			snippet(c.Content))
	}
}

// SearchResult renders ranked matches with scores and chunk counts.
func (r *Renderer) SearchResult(result domain.SearchResult) {
	if result.TotalMatches == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("no matches"))
		return
	}

	fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render(fmt.Sprintf("%d match(es)", result.TotalMatches)))
	for i, m := range result.Matches {
		fmt.Fprintf(r.out, "%s %s %s\n",
			r.styles.Active.Render(fmt.Sprintf("%d.", i+1)),
			r.styles.Success.Render(fmt.Sprintf("%.3f", m.Score)),
			m.Context.ID)
		if len(m.Context.Metadata.Tags) > 0 {
			fmt.Fprintf(r.out, "   %s %s\n", r.styles.Label.Render("tags:"), strings.Join(m.Context.Metadata.Tags, ", "))
		}
		fmt.Fprintf(r.out, "   %s\n", snippet(m.Context.Content))
		fmt.Fprintf(r.out, "   %s\n", r.styles.Dim.Render(fmt.Sprintf("%d chunk(s)", len(m.Chunks))))
	}
}

// Success prints a highlighted confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints a highlighted error line.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// snippet returns the first line of content, truncated.
func snippet(content string) string {
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	if len(content) > snippetLength {
		content = content[:snippetLength] + "..."
	}
	return content
}
