package docx

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"mechat/internal/domain/models"
)

const titleSize = 28 // 14pt

// boldPattern is deliberately non-nested: "**a **b** c**" splits at the
// first closing marker and unbalanced markers stay literal.
var boldPattern = regexp.MustCompile(`\*\*.*?\*\*`)

// Options controls chat export rendering.
type Options struct {
	// Location is used for the HH:MM stamp next to each label. Defaults to UTC.
	Location *time.Location
	// Created is stored in the package metadata. Defaults to the last message time.
	Created time.Time
}

// ExportChat renders a conversation as a .docx document.
func ExportChat(title string, messages []models.ChatMessage, opts Options) ([]byte, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	created := opts.Created
	if created.IsZero() && len(messages) > 0 {
		created = messages[len(messages)-1].CreatedAt
	}

	doc := &Document{Title: title, Created: created}
	doc.Add(
		Paragraph{Runs: []Run{{Text: title, Bold: true, Size: titleSize}}},
		Empty(),
	)

	for _, msg := range messages {
		doc.Add(Paragraph{Runs: []Run{{
			Text: fmt.Sprintf("%s (%s):", label(msg), msg.CreatedAt.In(loc).Format("15:04")),
			Bold: true,
		}}})
		doc.Add(MarkdownParagraphs(msg.Content)...)
		doc.Add(Empty())
	}

	return doc.Bytes()
}

// Filename returns the download name for a chat export.
func Filename(mode models.ChatMode, day time.Time) string {
	return fmt.Sprintf("MEChat-%s-%s.docx", mode, day.Format("2006-01-02"))
}

func label(msg models.ChatMessage) string {
	switch {
	case msg.Role == models.RoleUser:
		return "You"
	case msg.Error:
		return "Bot (error)"
	default:
		return "Bot"
	}
}

// MarkdownParagraphs converts text to one paragraph per line. It understands
// "## " and "### " headings, "- " bullets and inline **bold**.
func MarkdownParagraphs(text string) []Paragraph {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "### "):
			paragraphs = append(paragraphs, Paragraph{Style: "Heading3", Runs: InlineRuns(line[4:])})
		case strings.HasPrefix(line, "## "):
			paragraphs = append(paragraphs, Paragraph{Style: "Heading2", Runs: InlineRuns(line[3:])})
		case strings.HasPrefix(line, "- "):
			paragraphs = append(paragraphs, Paragraph{Bullet: true, Runs: InlineRuns(line[2:])})
		default:
			paragraphs = append(paragraphs, Paragraph{Runs: InlineRuns(line)})
		}
	}
	return paragraphs
}

// InlineRuns splits a line into plain and bold runs on **markers**.
func InlineRuns(line string) []Run {
	var runs []Run
	last := 0
	for _, loc := range boldPattern.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: line[last:loc[0]]})
		}
		if inner := line[loc[0]+2 : loc[1]-2]; inner != "" {
			runs = append(runs, Run{Text: inner, Bold: true})
		}
		last = loc[1]
	}
	if last < len(line) {
		runs = append(runs, Run{Text: line[last:]})
	}
	return runs
}
