package cli

import (
	"strings"

	"github.com/gookit/color"
	"golang.org/x/net/html"

	"github.com/kirillkom/linguista/internal/core/domain"
)

var (
	headingStyle    = color.New(color.Bold, color.FgCyan)
	subheadingStyle = color.New(color.Bold)
	userStyle       = color.New(color.FgGreen)
	assistantStyle  = color.New(color.FgCyan)
	pendingStyle    = color.New(color.FgDarkGray)
	errorStyle      = color.New(color.FgRed)
)

func heading(s string) string    { return headingStyle.Render(s) }
func subheading(s string) string { return subheadingStyle.Render(s) }

func roleLabel(msg domain.ChatMessage) string {
	switch {
	case msg.Error:
		return errorStyle.Render(domain.AssistantName)
	case msg.Role == domain.RoleUser:
		return userStyle.Render("You")
	case msg.Role == domain.RolePending:
		return pendingStyle.Render(domain.AssistantName)
	default:
		return assistantStyle.Render(domain.AssistantName)
	}
}

// htmlToText flattens the small HTML fragments the backend embeds in
// explanations. Code spans are kept in backticks and block elements end a line.
func htmlToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	writeText(&b, doc)
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(collapseBlankLines(lines))
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			b.WriteByte('\n')
			return
		case "code":
			b.WriteByte('`')
			defer b.WriteByte('`')
		case "li":
			b.WriteString("\n• ")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(b, child)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "ul", "ol", "pre", "h1", "h2", "h3", "h4":
			b.WriteByte('\n')
		}
	}
}

func collapseBlankLines(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
