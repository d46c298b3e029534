package notion

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// MaxTextLength is the longest content Notion accepts in one rich-text
// segment.
const MaxTextLength = 2000

// maxSegments is the most rich-text segments a single block may carry.
const maxSegments = 100

// Page is the subset of a Notion page the bridge reads.
type Page struct {
	ID         string                   `json:"id"`
	Archived   bool                     `json:"archived"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue is a decoded page property.
type PropertyValue struct {
	Type     string     `json:"type"`
	Title    []RichText `json:"title"`
	RichText []RichText `json:"rich_text"`
	Number   *float64   `json:"number"`
	Status   *Option    `json:"status"`
	Select   *Option    `json:"select"`
}

// PlainText flattens the property to text. Unsupported types yield "".
func (p PropertyValue) PlainText() string {
	switch p.Type {
	case "title":
		return joinText(p.Title)
	case "rich_text":
		return joinText(p.RichText)
	case "number":
		if p.Number != nil {
			return strconv.FormatFloat(*p.Number, 'f', -1, 64)
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	}
	return ""
}

// RichText is one rich-text segment as returned by the API.
type RichText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

// Option is a status or select value.
type Option struct {
	Name string `json:"name"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// Properties is a property payload keyed by property name.
type Properties map[string]any

// CreatePageRequest is the body of POST /pages.
type CreatePageRequest struct {
	Parent     Parent     `json:"parent"`
	Properties Properties `json:"properties"`
	Children   []Block    `json:"children,omitempty"`
}

// UpdatePageRequest is the body of PATCH /pages/{id}.
type UpdatePageRequest struct {
	Properties Properties `json:"properties,omitempty"`
	Archived   *bool      `json:"archived,omitempty"`
}

// Parent points a new page at its database.
type Parent struct {
	DatabaseID string `json:"database_id"`
}

// Block is a child block; only paragraphs are written.
type Block struct {
	Object    string         `json:"object"`
	Type      string         `json:"type"`
	Paragraph ParagraphBlock `json:"paragraph"`
}

// ParagraphBlock is the content of a paragraph block.
type ParagraphBlock struct {
	RichText []any `json:"rich_text"`
}

// Paragraph builds a paragraph block, splitting long text into segments.
func Paragraph(text string) Block {
	return Block{
		Object:    "block",
		Type:      "paragraph",
		Paragraph: ParagraphBlock{RichText: segments(text)},
	}
}

// TitleValue builds a title property value.
func TitleValue(text string) map[string]any {
	return map[string]any{"title": []any{textSegment(Truncate(text))}}
}

// RichTextValue builds a rich_text property value. Empty text clears the
// property with an empty segment list.
func RichTextValue(text string) map[string]any {
	if text == "" {
		return map[string]any{"rich_text": []any{}}
	}
	return map[string]any{"rich_text": []any{textSegment(Truncate(text))}}
}

// StatusValue builds a status property value.
func StatusValue(name string) map[string]any {
	return map[string]any{"status": map[string]string{"name": name}}
}

// DateValue builds a date property value.
func DateValue(start string) map[string]any {
	return map[string]any{"date": map[string]string{"start": start}}
}

// Truncate cuts text to MaxTextLength characters as Notion counts them, in
// UTF-16 code units. Runes are never split.
func Truncate(text string) string {
	return text[:cutUTF16(text, MaxTextLength)]
}

// cutUTF16 returns the byte offset of the longest prefix of text that fits in
// limit UTF-16 code units.
func cutUTF16(text string, limit int) int {
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return i
		}
		units += n
	}
	return len(text)
}

func segments(text string) []any {
	var out []any
	for text != "" && len(out) < maxSegments {
		n := cutUTF16(text, MaxTextLength)
		out = append(out, textSegment(text[:n]))
		text = text[n:]
	}
	if out == nil {
		out = []any{}
	}
	return out
}

func textSegment(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]string{"content": content},
	}
}

func joinText(parts []RichText) string {
	var b strings.Builder
	for _, p := range parts {
		if p.PlainText != "" {
			b.WriteString(p.PlainText)
		} else if p.Text != nil {
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}
