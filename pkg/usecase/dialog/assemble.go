package dialog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// dialogMetadata is the part of the dialog metadata record that declares
// message order
type dialogMetadata struct {
	Headers []struct {
		BubbleID string `json:"bubbleId"`
	} `json:"fullConversationHeadersOnly"`
}

// declaredOrder returns the message ids declared by the dialog metadata. It
// returns nil when the metadata is absent, malformed or declares nothing, so
// callers fall back to insertion order.
func (uc *UseCase) declaredOrder(ctx context.Context, dialogID model.DialogID) ([]model.MessageID, error) {
	logger := logging.From(ctx)

	rec, err := uc.repo.GetDialogMetadata(ctx, dialogID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var meta dialogMetadata
	if err := json.Unmarshal(rec.Value, &meta); err != nil {
		logger.Debug("malformed dialog metadata, using insertion order",
			"dialog", dialogID, "error", err)
		return nil, nil
	}

	ids := make([]model.MessageID, 0, len(meta.Headers))
	for _, h := range meta.Headers {
		if h.BubbleID != "" {
			ids = append(ids, model.MessageID(h.BubbleID))
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// positioned is a record with its position in the transcript order
type positioned struct {
	pos int
	rec *model.RawRecord
}

// fetch returns the records of ids in the given order, skipping ids that are
// missing from the store
func (uc *UseCase) fetch(ctx context.Context, dialogID model.DialogID, ids []model.MessageID) ([]positioned, error) {
	records := make([]positioned, 0, len(ids))
	for i, id := range ids {
		rec, err := uc.repo.GetMessage(ctx, dialogID, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				logging.From(ctx).Debug("declared message missing", "dialog", dialogID, "message", id)
				continue
			}
			return nil, err
		}
		records = append(records, positioned{pos: i, rec: rec})
	}
	return records, nil
}

// inserted positions records in insertion order. Records whose key does not
// name a message take no position, matching OrderedIDs.
func inserted(records []*model.RawRecord) []positioned {
	result := make([]positioned, 0, len(records))
	for _, rec := range records {
		if _, _, ok := model.ParseMessageKey(rec.Key); !ok {
			continue
		}
		result = append(result, positioned{pos: len(result), rec: rec})
	}
	return result
}

// OrderedIDs returns the message ids of a dialog in transcript order: the
// declared order when the metadata has one, store insertion order otherwise
func (uc *UseCase) OrderedIDs(ctx context.Context, dialogID model.DialogID) ([]model.MessageID, error) {
	ids, err := uc.declaredOrder(ctx, dialogID)
	if err != nil {
		if unavailable(ctx, err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read dialog metadata", goerr.V("dialog", dialogID))
	}
	if ids != nil {
		return ids, nil
	}

	records, err := uc.repo.ListMessages(ctx, dialogID)
	if err != nil {
		if unavailable(ctx, err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V("dialog", dialogID))
	}

	ids = make([]model.MessageID, 0, len(records))
	for _, rec := range records {
		if _, id, ok := model.ParseMessageKey(rec.Key); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Assemble returns the full transcript of a dialog. Records that fail to
// decode or carry nothing to show are dropped. Ordinal is the position in
// transcript order, the same numbering Window uses, so dropped records leave
// gaps.
func (uc *UseCase) Assemble(ctx context.Context, dialogID model.DialogID) ([]*model.Message, error) {
	ids, err := uc.declaredOrder(ctx, dialogID)
	if err != nil {
		if unavailable(ctx, err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read dialog metadata", goerr.V("dialog", dialogID))
	}

	var records []positioned
	if ids != nil {
		records, err = uc.fetch(ctx, dialogID, ids)
	} else {
		var all []*model.RawRecord
		all, err = uc.repo.ListMessages(ctx, dialogID)
		records = inserted(all)
	}
	if err != nil {
		if unavailable(ctx, err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read messages", goerr.V("dialog", dialogID))
	}

	messages := make([]*model.Message, 0, len(records))
	for _, r := range records {
		msg := uc.decode(ctx, r.rec)
		if msg == nil {
			continue
		}
		msg.Ordinal = r.pos
		messages = append(messages, msg)
	}
	return messages, nil
}

// Window returns the messages within radius positions of messageID in
// transcript order, flagging the target. An unknown target yields nothing.
func (uc *UseCase) Window(ctx context.Context, dialogID model.DialogID, messageID model.MessageID, radius int) ([]*model.ContextMessage, error) {
	if radius < 0 {
		radius = 0
	}

	ids, err := uc.OrderedIDs(ctx, dialogID)
	if err != nil {
		return nil, err
	}
	if radius > len(ids) {
		radius = len(ids)
	}

	target := -1
	for i, id := range ids {
		if id == messageID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, nil
	}

	start := max(0, target-radius)
	end := min(len(ids), target+radius+1)

	var window []*model.ContextMessage
	for i := start; i < end; i++ {
		rec, err := uc.repo.GetMessage(ctx, dialogID, ids[i])
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			if unavailable(ctx, err) {
				return nil, nil
			}
			return nil, goerr.Wrap(err, "failed to read message", goerr.V("dialog", dialogID), goerr.V("message", ids[i]))
		}

		msg := uc.decode(ctx, rec)
		if msg == nil {
			continue
		}
		msg.Ordinal = i
		window = append(window, &model.ContextMessage{
			Message:  msg,
			IsTarget: i == target,
		})
	}
	return window, nil
}

func (uc *UseCase) decode(ctx context.Context, rec *model.RawRecord) *model.Message {
	msg, err := uc.decoder.Decode(rec)
	if err != nil {
		logging.From(ctx).Debug("drop undecodable record", "key", rec.Key, "error", err)
		return nil
	}
	return msg
}
