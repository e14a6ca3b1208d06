package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-memory Repository. Records keep their insertion order, the
// way rowid orders them in the host store.
type Memory struct {
	mu         sync.RWMutex
	workspaces []*model.Workspace
	keys       []string
	records    map[string]*model.RawRecord
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*model.RawRecord),
	}
}

// PutWorkspace adds a workspace with its dialog list
func (x *Memory) PutWorkspace(ws *model.Workspace) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.workspaces = append(x.workspaces, ws)
}

// Put stores a global record. Overwriting a key keeps its original position.
func (x *Memory) Put(key string, value []byte) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.records[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.records[key] = model.NewRawRecord(key, value)
}

func (x *Memory) ListWorkspaces(ctx context.Context) ([]*model.Workspace, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	workspaces := make([]*model.Workspace, len(x.workspaces))
	copy(workspaces, x.workspaces)
	return workspaces, nil
}

func (x *Memory) GetDialogMetadata(ctx context.Context, id model.DialogID) (*model.RawRecord, error) {
	return x.get(model.DialogMetadataKey(id))
}

func (x *Memory) GetMessage(ctx context.Context, dialogID model.DialogID, messageID model.MessageID) (*model.RawRecord, error) {
	return x.get(model.MessageKey(dialogID, messageID))
}

func (x *Memory) get(key string) (*model.RawRecord, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rec, ok := x.records[key]
	if !ok || !rec.Eligible() {
		return nil, goerr.Wrap(model.ErrNotFound, "record not found", goerr.V("key", key))
	}
	return rec, nil
}

func (x *Memory) ListMessages(ctx context.Context, dialogID model.DialogID) ([]*model.RawRecord, error) {
	var records []*model.RawRecord
	err := x.scan(ctx, model.MessageKeyPrefix(dialogID), func(rec *model.RawRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (x *Memory) ScanMessages(ctx context.Context, fn func(*model.RawRecord) error) error {
	return x.scan(ctx, model.MessageRecordPrefix, fn)
}

func (x *Memory) scan(ctx context.Context, prefix string, fn func(*model.RawRecord) error) error {
	x.mu.RLock()
	matched := make([]*model.RawRecord, 0, len(x.keys))
	for _, key := range x.keys {
		if rec := x.records[key]; strings.HasPrefix(key, prefix) && rec.Eligible() {
			matched = append(matched, rec)
		}
	}
	x.mu.RUnlock()

	for _, rec := range matched {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "scan canceled")
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}
