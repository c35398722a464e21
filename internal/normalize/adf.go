package normalize

import (
	"fmt"
	"strings"

	"github.com/mhradil/jiratrack/internal/jira"
)

// ConvertADF renders an Atlassian Document Format tree to markdown. Unknown
// node types degrade to their text content, so a malformed or novel document
// never fails conversion. The result is trimmed; an absent or empty document
// yields "".
func ConvertADF(doc *jira.ADFNode) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(renderBlocks(doc.Content, ""))
}

// renderBlocks joins top-level blocks with blank lines, carrying the current
// indentation prefix for nested lists.
func renderBlocks(nodes []jira.ADFNode, indent string) string {
	var blocks []string
	for _, node := range nodes {
		if block := renderBlock(node, indent); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderBlock(node jira.ADFNode, indent string) string {
	switch node.Type {
	case "paragraph":
		return indent + renderInline(node.Content)
	case "heading":
		level := 1
		if l, ok := node.Attrs["level"].(float64); ok && l >= 1 && l <= 6 {
			level = int(l)
		}
		return strings.Repeat("#", level) + " " + renderInline(node.Content)
	case "bulletList":
		return renderList(node.Content, indent, func(int) string { return "- " })
	case "orderedList":
		return renderList(node.Content, indent, func(i int) string { return fmt.Sprintf("%d. ", i+1) })
	case "codeBlock":
		language, _ := node.Attrs["language"].(string)
		return indent + "```" + language + "\n" + renderInline(node.Content) + "\n" + indent + "```"
	case "blockquote":
		var lines []string
		for _, line := range strings.Split(renderBlocks(node.Content, ""), "\n") {
			lines = append(lines, indent+"> "+line)
		}
		return strings.Join(lines, "\n")
	case "rule":
		return indent + "---"
	default:
		if len(node.Content) > 0 {
			return renderBlocks(node.Content, indent)
		}
		return ""
	}
}

func renderList(items []jira.ADFNode, indent string, marker func(int) string) string {
	var lines []string
	for i, item := range items {
		body := renderBlocks(item.Content, "")
		for j, line := range strings.Split(body, "\n") {
			if j == 0 {
				lines = append(lines, indent+marker(i)+line)
			} else if line != "" {
				lines = append(lines, indent+"  "+line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func renderInline(nodes []jira.ADFNode) string {
	var sb strings.Builder
	for _, node := range nodes {
		switch node.Type {
		case "text":
			sb.WriteString(applyMarks(node.Text, node.Marks))
		case "hardBreak":
			sb.WriteString("\n")
		case "mention":
			if text, ok := node.Attrs["text"].(string); ok {
				sb.WriteString(text)
			}
		case "emoji":
			if short, ok := node.Attrs["shortName"].(string); ok {
				sb.WriteString(short)
			}
		case "inlineCard":
			if u, ok := node.Attrs["url"].(string); ok {
				sb.WriteString(u)
			}
		default:
			sb.WriteString(renderInline(node.Content))
		}
	}
	return sb.String()
}

func applyMarks(text string, marks []jira.ADFMark) string {
	for _, mark := range marks {
		switch mark.Type {
		case "strong":
			text = "**" + text + "**"
		case "em":
			text = "*" + text + "*"
		case "code":
			text = "`" + text + "`"
		case "strike":
			text = "~~" + text + "~~"
		case "link":
			if href, ok := mark.Attrs["href"].(string); ok {
				text = "[" + text + "](" + href + ")"
			}
		}
	}
	return text
}
