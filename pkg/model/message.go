package model

import "strconv"

// Role is the numeric message type recorded by the host. Values other than
// RoleUser and RoleAssistant are kept verbatim.
type Role int

const (
	RoleUser      Role = 1
	RoleAssistant Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "type " + strconv.Itoa(int(r))
	}
}

// Message is one decoded turn of a dialog
type Message struct {
	ID          MessageID
	DialogID    DialogID
	Key         string
	Ordinal     int
	Role        Role
	// Text is trimmed for display; RawText is the text exactly as stored
	Text        string
	RawText     string
	Tool        *ToolInvocation
	Thinking    *ThinkingSegment
	Attachments []*Attachment

	// ThinkingText is the readable reasoning content recorded on any message,
	// whatever its role. It is empty when the content is an encoded signature
	// that does not decode.
	ThinkingText string

	Tokens         TokenCount
	UsageUUID      string
	ServerBubbleID string
	IsAgentic      bool
	UnifiedMode    int
	UseWeb         bool
	IsRefunded     bool
}

// TokenCount is the token usage reported for a message
type TokenCount struct {
	Input  int64
	Output int64
}

// Total returns input plus output tokens
func (t TokenCount) Total() int64 {
	return t.Input + t.Output
}

// IsThinking reports whether the message is a reasoning trace
func (m *Message) IsThinking() bool {
	return m.Thinking != nil
}

// Retained reports whether the message carries anything worth surfacing:
// text, a tool invocation, attachments, or reasoning.
func (m *Message) Retained() bool {
	return m.Text != "" || m.Tool != nil || len(m.Attachments) > 0 || m.Thinking != nil || m.ThinkingText != ""
}

// ThinkingEncodedPlaceholder replaces reasoning content that is an encoded
// signature and cannot be decoded into readable text.
const ThinkingEncodedPlaceholder = "[encoded reasoning trace]"

// ThinkingSegment is an assistant reasoning trace
type ThinkingSegment struct {
	DurationMs int64
	Content    string
	// Encoded is set when Content is ThinkingEncodedPlaceholder
	Encoded bool
}

// ContextMessage is a Message inside a context window
type ContextMessage struct {
	*Message
	IsTarget bool
}
