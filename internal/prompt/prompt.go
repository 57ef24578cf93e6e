package prompt

import (
	"fmt"
	"strings"

	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/segment"
)

const (
	scoringSystem = "You are a Customer Service expert!"
	chatSystem    = "You are a customer service expert that gets the transcription of user " +
		"calls and then gives a report on it. Then you answer queries from the user on how " +
		"he can improve. Note: the user is the customer service official."

	// workedExample anchors the model to the expected output shape:
	// category:score pairs plus the averaged index.
	workedExample = "Communication: 8.5/10 Resolution: 8/10 Emotion Handling: 7/10. " +
		"So, the overall Customer Satisfaction Index can be calculated as the average " +
		"of these three scores, which is approximately 7.8/10."

	defaultMaxChatChars = 12000
)

// Builder constructs model prompts. Construction is deterministic:
// same turns or same buffer contents always produce the same string.
type Builder struct {
	// MaxChatChars caps the rendered chat history. When the buffer
	// exceeds it, the oldest turns after the seed are dropped first;
	// the seed report turn is never dropped.
	MaxChatChars int
}

// NewBuilder returns a Builder with the default context budget.
func NewBuilder() *Builder {
	return &Builder{MaxChatChars: defaultMaxChatChars}
}

// Scoring renders the single-shot CSI scoring prompt: instruction
// block, alternating transcript/tone line pairs, and the worked
// example showing the expected output shape.
func (b *Builder) Scoring(turns []segment.AnnotatedTurn) string {
	var lines strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&lines, "[%.2f-%.2f] %s\n", t.Start, t.End, t.Text)
		fmt.Fprintf(&lines, "[%.2f-%.2f] tone: %s\n", t.Start, t.End, t.Dominant.Letter())
	}

	user := fmt.Sprintf("I will provide you with the transcripts of a customer service call, "+
		"each followed by the tone of the voice over the same timestamps "+
		"('a': Anger 'h': Happy 'n': Neutral). You have to analyse both and come up with a "+
		"Customer Satisfaction Index.\n"+
		"<Transcripts and tones>\n%s</Transcripts and tones>\n"+
		"<Example>\n%s\n</Example>", lines.String(), workedExample)

	return fmt.Sprintf("### System:\n%s\n### User:\n%s\n### Assistant:\n", scoringSystem, user)
}

// Chat renders the follow-up prompt: full dialogue history in order,
// then the new query, within the MaxChatChars sliding window.
func (b *Builder) Chat(history []llm.Message, query string) string {
	max := b.MaxChatChars
	if max <= 0 {
		max = defaultMaxChatChars
	}

	head := fmt.Sprintf("### System:\n%s\n", chatSystem)
	tail := fmt.Sprintf("### User:\n%s\n### Assistant:\n", query)

	blocks := make([]string, len(history))
	for i, m := range history {
		blocks[i] = renderTurn(m)
	}

	budget := max - len(head) - len(tail)
	keepFrom := len(blocks) // index of the first post-seed block kept
	if len(blocks) > 0 {
		// The seed turn is pinned; newer turns fill what remains.
		budget -= len(blocks[0])
		for i := len(blocks) - 1; i >= 1; i-- {
			if budget < len(blocks[i]) {
				break
			}
			budget -= len(blocks[i])
			keepFrom = i
		}
	}

	var sb strings.Builder
	sb.WriteString(head)
	if len(blocks) > 0 {
		sb.WriteString(blocks[0])
		for i := keepFrom; i < len(blocks); i++ {
			sb.WriteString(blocks[i])
		}
	}
	sb.WriteString(tail)
	return sb.String()
}

func renderTurn(m llm.Message) string {
	switch m.Role {
	case llm.RoleAssistant:
		return fmt.Sprintf("### Assistant:\n%s\n", m.Content)
	case llm.RoleSystem:
		return fmt.Sprintf("### System:\n%s\n", m.Content)
	default:
		return fmt.Sprintf("### User:\n%s\n", m.Content)
	}
}
