package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mhradil/jiratrack/internal/jira"
)

func text(s string, marks ...jira.ADFMark) jira.ADFNode {
	return jira.ADFNode{Type: "text", Text: s, Marks: marks}
}

func paragraph(content ...jira.ADFNode) jira.ADFNode {
	return jira.ADFNode{Type: "paragraph", Content: content}
}

func doc(content ...jira.ADFNode) *jira.ADFNode {
	return &jira.ADFNode{Type: "doc", Content: content}
}

func TestConvertADF(t *testing.T) {
	tests := []struct {
		name     string
		doc      *jira.ADFNode
		expected string
	}{
		{
			name:     "nil document",
			doc:      nil,
			expected: "",
		},
		{
			name:     "paragraphs are separated by blank lines",
			doc:      doc(paragraph(text("first")), paragraph(text("second"))),
			expected: "first\n\nsecond",
		},
		{
			name: "marks",
			doc: doc(paragraph(
				text("bold", jira.ADFMark{Type: "strong"}),
				text(" and "),
				text("code", jira.ADFMark{Type: "code"}),
			)),
			expected: "**bold** and `code`",
		},
		{
			name: "link mark",
			doc: doc(paragraph(text("docs", jira.ADFMark{
				Type:  "link",
				Attrs: map[string]interface{}{"href": "https://example.com"},
			}))),
			expected: "[docs](https://example.com)",
		},
		{
			name: "heading level",
			doc: doc(jira.ADFNode{
				Type:    "heading",
				Attrs:   map[string]interface{}{"level": float64(2)},
				Content: []jira.ADFNode{text("Overview")},
			}),
			expected: "## Overview",
		},
		{
			name: "bullet list",
			doc: doc(jira.ADFNode{Type: "bulletList", Content: []jira.ADFNode{
				{Type: "listItem", Content: []jira.ADFNode{paragraph(text("one"))}},
				{Type: "listItem", Content: []jira.ADFNode{paragraph(text("two"))}},
			}}),
			expected: "- one\n- two",
		},
		{
			name: "ordered list",
			doc: doc(jira.ADFNode{Type: "orderedList", Content: []jira.ADFNode{
				{Type: "listItem", Content: []jira.ADFNode{paragraph(text("first"))}},
				{Type: "listItem", Content: []jira.ADFNode{paragraph(text("second"))}},
			}}),
			expected: "1. first\n2. second",
		},
		{
			name: "code block",
			doc: doc(jira.ADFNode{
				Type:    "codeBlock",
				Attrs:   map[string]interface{}{"language": "go"},
				Content: []jira.ADFNode{text("fmt.Println()")},
			}),
			expected: "```go\nfmt.Println()\n```",
		},
		{
			name:     "blockquote",
			doc:      doc(jira.ADFNode{Type: "blockquote", Content: []jira.ADFNode{paragraph(text("quoted"))}}),
			expected: "> quoted",
		},
		{
			name:     "hard break",
			doc:      doc(paragraph(text("one"), jira.ADFNode{Type: "hardBreak"}, text("two"))),
			expected: "one\ntwo",
		},
		{
			name: "mention and emoji",
			doc: doc(paragraph(
				jira.ADFNode{Type: "mention", Attrs: map[string]interface{}{"text": "@jane"}},
				text(" ships "),
				jira.ADFNode{Type: "emoji", Attrs: map[string]interface{}{"shortName": ":tada:"}},
			)),
			expected: "@jane ships :tada:",
		},
		{
			name: "unknown node degrades to its text content",
			doc: doc(jira.ADFNode{Type: "panel", Content: []jira.ADFNode{
				paragraph(text("note")),
			}}),
			expected: "note",
		},
		{
			name:     "rule",
			doc:      doc(paragraph(text("above")), jira.ADFNode{Type: "rule"}),
			expected: "above\n\n---",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ConvertADF(tc.doc))
		})
	}
}
