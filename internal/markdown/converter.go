// Package markdown renders parsed emails as Markdown documents: a
// YAML-style metadata block followed by the converted body.
package markdown

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mailtools/gmail2md/internal/export"
)

// DefaultStrongDelimiter is the emphasis marker used for <b>/<strong>
// unless configured otherwise.
const DefaultStrongDelimiter = "**"

// Options configures rendering.
type Options struct {
	// WrapWidth wraps body text at the given column. 0 disables
	// wrapping.
	WrapWidth int

	// StrongDelimiter overrides the marker for strong emphasis.
	// Defaults to "**".
	StrongDelimiter string
}

// Converter renders emails deterministically: the same email and
// options always produce byte-identical output.
type Converter struct {
	opts Options
	conv *converter.Converter

	// clean removes script/style (with their contents) before
	// conversion; strip is the all-tags fallback for markup the
	// converter cannot handle.
	clean *bluemonday.Policy
	strip *bluemonday.Policy
}

// New builds a Converter with the given options.
func New(opts Options) *Converter {
	if opts.StrongDelimiter == "" {
		opts.StrongDelimiter = DefaultStrongDelimiter
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithStrongDelimiter(opts.StrongDelimiter),
			),
		),
	)

	// Keep the structural and formatting elements the commonmark
	// plugin understands; everything else (script, style, tracking
	// pixels with event handlers) is dropped before conversion.
	clean := bluemonday.UGCPolicy()
	clean.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	clean.AllowAttrs("href").OnElements("a")
	clean.AllowAttrs("src", "alt", "title").OnElements("img")
	clean.AllowURLSchemes("http", "https", "mailto")

	return &Converter{
		opts:  opts,
		conv:  conv,
		clean: clean,
		strip: bluemonday.StrictPolicy(),
	}
}

var _ export.Renderer = (*Converter)(nil)

// Render produces the full Markdown document for an email: metadata
// block, blank line, converted body.
func (c *Converter) Render(e *export.Email) (string, error) {
	var b strings.Builder
	b.WriteString(c.metadataBlock(e))
	b.WriteString("\n")
	b.WriteString(c.renderBody(e))
	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out, nil
}

// metadataBlock emits the ----delimited header block. Field order is
// fixed; Cc is omitted entirely when absent rather than emitted empty.
func (c *Converter) metadataBlock(e *export.Email) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "From: %s\n", headerValue(e.From()))
	fmt.Fprintf(&b, "To: %s\n", headerValue(e.To()))
	if cc := e.Cc(); cc != "" {
		fmt.Fprintf(&b, "Cc: %s\n", cc)
	}
	fmt.Fprintf(&b, "Date: %s\n", e.DisplayDate())
	fmt.Fprintf(&b, "Subject: %s\n", e.Subject)
	b.WriteString("---\n")
	return b.String()
}

func headerValue(v string) string {
	if v == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(v, "\n", " ")
}

// renderBody prefers the HTML body, falling back to whitespace-
// normalized plain text, then to a placeholder for empty messages.
func (c *Converter) renderBody(e *export.Email) string {
	if e.BodyHTML != "" {
		return c.htmlToMarkdown(e.BodyHTML)
	}
	if e.BodyText != "" {
		return c.finish(e.BodyText)
	}
	return "[No body content]\n"
}

// htmlToMarkdown converts HTML to Markdown. When the converter rejects
// severely malformed markup the body degrades to naively tag-stripped
// text instead of failing the message.
func (c *Converter) htmlToMarkdown(html string) string {
	cleaned := c.clean.Sanitize(html)

	md, err := c.conv.ConvertString(cleaned)
	if err != nil {
		return c.finish(c.strip.Sanitize(html))
	}
	return c.finish(md)
}

// finish applies the shared output normalization: trailing whitespace
// trimmed per line, blank runs collapsed to a single blank line,
// optional wrapping, single trailing newline.
func (c *Converter) finish(body string) string {
	body = collapseBlankLines(body)
	if c.opts.WrapWidth > 0 {
		body = wrapText(body, c.opts.WrapWidth)
	}
	return strings.TrimRight(body, "\n") + "\n"
}

// collapseBlankLines trims trailing spaces and allows at most one
// consecutive blank line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// wrapText greedily wraps each line at width columns, preserving
// blank-line structure. Lines without spaces (long URLs) are left
// intact.
func wrapText(s string, width int) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if len(line) <= width {
			out = append(out, line)
			continue
		}
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, line)
			continue
		}
		current := words[0]
		for _, w := range words[1:] {
			if len(current)+1+len(w) > width {
				out = append(out, current)
				current = w
				continue
			}
			current += " " + w
		}
		out = append(out, current)
	}
	return strings.Join(out, "\n")
}
