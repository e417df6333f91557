// Package export renders finalized conversations to a portable text format.
// Output is deterministic for identical input so exports can be compared
// byte-for-byte.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/llm-council/council-client/internal/model"
)

const (
	// previewRunes is how much of each council answer survives into the
	// per-model preview.
	previewRunes = 100

	// delimiter separates message sections.
	delimiter = "---"
)

// Serializer renders conversations with display names applied from a model
// registry. A nil or incomplete registry falls back to raw identifiers.
type Serializer struct {
	names map[string]string
}

// NewSerializer creates a serializer over an ID-to-display-name map.
func NewSerializer(names map[string]string) *Serializer {
	return &Serializer{names: names}
}

// Render produces the text form of a conversation: a header with title and
// creation timestamp, then a role-tagged section per message separated by a
// fixed delimiter. Assistant messages holding a stage3 payload render the
// final answer followed by truncated previews of each council response;
// plain follow-ups render their content verbatim.
func (s *Serializer) Render(conv *model.Conversation) []byte {
	var b strings.Builder

	title := conv.Title
	if title == "" {
		title = "Untitled conversation"
	}
	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "Created: %s\n", conv.CreatedAt.UTC().Format(time.RFC3339))

	for _, msg := range conv.Messages {
		b.WriteString("\n" + delimiter + "\n\n")
		s.renderMessage(&b, msg)
	}

	b.WriteString("\n" + delimiter + "\n")
	return []byte(b.String())
}

func (s *Serializer) renderMessage(b *strings.Builder, msg *model.Message) {
	switch msg.Role {
	case model.RoleUser:
		b.WriteString("## User\n\n")
		if msg.Content != nil {
			b.WriteString(*msg.Content + "\n")
		}

	case model.RoleAssistant:
		b.WriteString("## Assistant\n\n")
		if msg.Err != nil {
			fmt.Fprintf(b, "(turn failed: %s)\n", *msg.Err)
			return
		}
		if msg.Stage3 == nil {
			if msg.Content != nil {
				b.WriteString(*msg.Content + "\n")
			}
			return
		}

		b.WriteString(msg.Stage3.Response + "\n")
		if len(msg.Stage1) > 0 {
			b.WriteString("\n### Council responses\n\n")
			for _, res := range msg.Stage1 {
				fmt.Fprintf(b, "- %s: %s\n", s.name(res.Model), truncate(res.Response))
			}
		}
	}
}

func (s *Serializer) name(id string) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return id
}

// truncate keeps the first previewRunes runes and marks the cut with an
// ellipsis suffix. Rune-based so multibyte answers never split mid-character.
func truncate(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

// WriteFile renders a conversation into dir with a name derived from the
// conversation ID. Returns the written path.
func (s *Serializer) WriteFile(conv *model.Conversation, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("conversation_%s.txt", conv.ID))
	if err := os.WriteFile(path, s.Render(conv), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
