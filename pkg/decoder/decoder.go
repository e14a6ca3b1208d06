package decoder

import (
	"strings"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Decoder turns raw message records into typed messages
type Decoder struct{}

// New creates a new Decoder
func New() *Decoder {
	return &Decoder{}
}

// Decode parses one raw record. It returns (nil, nil) for records that are
// under the padding threshold or that carry nothing to surface, and an error
// wrapping model.ErrInvalidRecord when the value is not a JSON object.
func (d *Decoder) Decode(rec *model.RawRecord) (*model.Message, error) {
	if !rec.Eligible() {
		return nil, nil
	}

	record, err := ParseRecord(rec.Value)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode message", goerr.V("key", rec.Key))
	}

	msg := decodeRecord(record)
	msg.Key = rec.Key
	if dialogID, messageID, ok := model.ParseMessageKey(rec.Key); ok {
		msg.DialogID = dialogID
		if msg.ID == "" {
			msg.ID = messageID
		}
	}

	if !msg.Retained() {
		return nil, nil
	}
	return msg, nil
}

func decodeRecord(record Record) *model.Message {
	o := record.object()

	text := o.str("text")
	msg := &model.Message{
		ID:             model.MessageID(o.str("bubbleId")),
		Text:           strings.TrimSpace(text),
		RawText:        text,
		UsageUUID:      o.str("usageUuid"),
		ServerBubbleID: o.str("serverBubbleId"),
		IsAgentic:      o.truthy("isAgentic"),
		UseWeb:         o.truthy("useWeb"),
		IsRefunded:     o.truthy("isRefunded"),
		Tool:           resolveTool(o),
		Attachments:    ExtractAttachments(record),
	}

	if role, ok := o.int("type"); ok {
		msg.Role = model.Role(role)
	}
	if mode, ok := o.int("unifiedMode"); ok {
		msg.UnifiedMode = int(mode)
	}
	if tokens, ok := o.obj("tokenCount"); ok {
		msg.Tokens.Input, _ = tokens.int("inputTokens")
		msg.Tokens.Output, _ = tokens.int("outputTokens")
	}

	if content, encoded := resolveThinkingContent(o.raw("thinking")); !encoded {
		msg.ThinkingText = content
	}
	if msg.Role == model.RoleAssistant && msg.Text == "" && isThought(o) {
		msg.Thinking = resolveThinking(o)
	}

	return msg
}
