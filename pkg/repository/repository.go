package repository

import (
	"context"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrStopScan is returned by a ScanMessages callback to end the scan early
// without failing it
var ErrStopScan = goerr.New("stop scan")

// Repository reads the editor's chat store. Implementations never write.
type Repository interface {
	// ListWorkspaces returns every workspace that has a dialog list
	ListWorkspaces(ctx context.Context) ([]*model.Workspace, error)

	// GetDialogMetadata returns the metadata record of a dialog, or
	// model.ErrNotFound when no eligible record exists
	GetDialogMetadata(ctx context.Context, id model.DialogID) (*model.RawRecord, error)

	// GetMessage returns a single message record, or model.ErrNotFound
	GetMessage(ctx context.Context, dialogID model.DialogID, messageID model.MessageID) (*model.RawRecord, error)

	// ListMessages returns all eligible message records of a dialog in
	// insertion order
	ListMessages(ctx context.Context, dialogID model.DialogID) ([]*model.RawRecord, error)

	// ScanMessages streams every eligible message record of the store in
	// insertion order
	ScanMessages(ctx context.Context, fn func(*model.RawRecord) error) error
}
