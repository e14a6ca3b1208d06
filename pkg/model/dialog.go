package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNotFound         = goerr.New("record not found")
	ErrStoreUnavailable = goerr.New("store unavailable")
	ErrInvalidRecord    = goerr.New("invalid record")
)

type DialogID string

type MessageID string

// Dialog is one entry of a workspace's dialog list
type Dialog struct {
	ID            DialogID
	Name          string
	CreatedAt     int64 // ms epoch
	LastUpdatedAt int64 // ms epoch
}

// DialogSummary is a Dialog joined with the project it belongs to
type DialogSummary struct {
	Dialog
	ProjectName string
	FolderPath  string
	WorkspaceID string
}

// Workspace is a project workspace and the dialogs recorded for it
type Workspace struct {
	ID          string
	ProjectName string
	FolderPath  string
	Dialogs     []*Dialog
}

// LatestDialog returns the most recently updated dialog, or nil if the workspace has none
func (w *Workspace) LatestDialog() *Dialog {
	var latest *Dialog
	for _, d := range w.Dialogs {
		if latest == nil || d.LastUpdatedAt > latest.LastUpdatedAt {
			latest = d
		}
	}
	return latest
}

// MsTime converts a ms epoch timestamp to time.Time. Zero stays the zero time.
func MsTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// TimeMs converts t to a ms epoch timestamp. The zero time maps to 0.
func TimeMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
