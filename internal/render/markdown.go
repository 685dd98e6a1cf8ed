// Package render turns post bodies written in the site's small markdown
// dialect into HTML fragments.
//
// The renderer is a fixed, ordered list of text substitutions, not a
// parser. Later steps see the output of earlier ones, so the order is
// part of the observable behaviour. Two known gaps are kept as-is:
// list items are emitted without an enclosing <ul>/<ol>, and table rows
// are detected line by line even inside fenced code blocks.
//
// Input is trusted: nothing is escaped.
package render

import (
	"regexp"
	"strings"

	"github.com/lumenresearch/newsroom/internal/models"
)

// step is one pure text transformation of the pipeline.
type step struct {
	name  string
	apply func(string) string
}

var (
	h3Line      = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Line      = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Line      = regexp.MustCompile(`(?m)^# (.*)$`)
	boldSpan    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicSpan  = regexp.MustCompile(`\*(.*?)\*`)
	quoteLine   = regexp.MustCompile(`(?m)^> (.*)$`)
	bulletLine  = regexp.MustCompile(`(?m)^- (.*)$`)
	orderedLine = regexp.MustCompile(`(?m)^\d+\. (.*)$`)
	ruleLine    = regexp.MustCompile(`(?m)^---$`)
	tableSpan   = regexp.MustCompile(`\|(.+)\|`)
	dashCell    = regexp.MustCompile(`^-+$`)
	fencedBlock = regexp.MustCompile("(?s)```(.*?)```")
	inlineCode  = regexp.MustCompile("`([^`]+)`")
)

const emptyParagraph = "<p></p>"

// blockPrefixes mark lines that already hold a block element and must not be wrapped in <p>.
var blockPrefixes = []string{"<h", "<l", "<block", "<pre", "<tr"}

// pipeline is the rendering order. Do not reorder.
var pipeline = []step{
	{"headings", headings},
	{"bold", replacer(boldSpan, "<strong>$1</strong>")},
	{"italic", replacer(italicSpan, "<em>$1</em>")},
	{"blockquotes", replacer(quoteLine, "<blockquote>$1</blockquote>")},
	{"list items", listItems},
	{"horizontal rules", replacer(ruleLine, "<hr />")},
	{"table rows", tableRows},
	{"code blocks", replacer(fencedBlock, "<pre><code>$1</code></pre>")},
	{"inline code", replacer(inlineCode, "<code>$1</code>")},
	{"paragraphs", paragraphs},
	{"tables", tables},
	{"empty paragraphs", func(s string) string { return strings.ReplaceAll(s, emptyParagraph, "") }},
}

// Markdown renders the markdown subset to an HTML fragment. It never fails.
func Markdown(input string) string {
	out := strings.ReplaceAll(input, "\r\n", "\n")
	for _, s := range pipeline {
		out = s.apply(out)
	}
	return out
}

// HTML returns the display markup for a post body. Bodies that are
// already HTML pass through untouched.
func HTML(post models.Post) string {
	if post.BodyFormat() == models.FormatHTML {
		return post.Content
	}
	return Markdown(post.Content)
}

func replacer(re *regexp.Regexp, template string) func(string) string {
	return func(s string) string {
		return re.ReplaceAllString(s, template)
	}
}

// headings checks the longest marker first so "### x" only ever becomes an <h3>.
func headings(s string) string {
	s = h3Line.ReplaceAllString(s, "<h3>$1</h3>")
	s = h2Line.ReplaceAllString(s, "<h2>$1</h2>")
	return h1Line.ReplaceAllString(s, "<h1>$1</h1>")
}

func listItems(s string) string {
	s = bulletLine.ReplaceAllString(s, "<li>$1</li>")
	return orderedLine.ReplaceAllString(s, "<li>$1</li>")
}

// tableRows converts each "|a|b|" span into a <tr>. A row made only of
// dash cells is a header separator and its line is removed, so the rows
// around it stay adjacent.
func tableRows(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !tableSpan.MatchString(line) {
			out = append(out, line)
			continue
		}
		converted := tableSpan.ReplaceAllStringFunc(line, tableRow)
		if strings.TrimSpace(converted) == "" {
			continue
		}
		out = append(out, converted)
	}
	return strings.Join(out, "\n")
}

func tableRow(match string) string {
	cells := strings.Split(match, "|")
	// the span starts and ends with a pipe, so the edge cells are always empty
	cells = cells[1 : len(cells)-1]

	separator := true
	header := false
	for _, cell := range cells {
		trimmed := strings.TrimSpace(cell)
		if !dashCell.MatchString(trimmed) {
			separator = false
		}
		if strings.Contains(cell, "---") {
			header = true
		}
	}
	if separator {
		return ""
	}

	tag := "td"
	if header {
		tag = "th"
	}

	var b strings.Builder
	b.WriteString("<tr>")
	for _, cell := range cells {
		b.WriteString("<" + tag + ">")
		b.WriteString(strings.TrimSpace(cell))
		b.WriteString("</" + tag + ">")
	}
	b.WriteString("</tr>")
	return b.String()
}

// paragraphs wraps every non-empty line that does not already start a
// block element. Lines inside a <pre> block belong to it and are left alone.
func paragraphs(s string) string {
	lines := strings.Split(s, "\n")
	inPre := false
	for i, line := range lines {
		if inPre {
			if strings.Contains(line, "</pre>") {
				inPre = false
			}
			continue
		}
		if strings.HasPrefix(line, "<pre") {
			inPre = !strings.Contains(line, "</pre>")
			continue
		}
		if line == "" || hasBlockPrefix(line) {
			continue
		}
		lines[i] = "<p>" + line + "</p>"
	}
	return strings.Join(lines, "\n")
}

func hasBlockPrefix(line string) bool {
	for _, prefix := range blockPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// tables wraps each run of consecutive table-row lines in one <table>.
func tables(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		run[0] = "<table>" + run[0]
		run[len(run)-1] += "</table>"
		out = append(out, run...)
		run = nil
	}

	for _, line := range lines {
		if isTableRow(line) {
			run = append(run, line)
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()

	return strings.Join(out, "\n")
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "<tr>") && strings.HasSuffix(line, "</tr>")
}
