package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

const (
	workspaceTable     = "ItemTable"
	workspaceDialogKey = "composer.composerData"
	globalTable        = "cursorDiskKV"

	workspaceDBName   = "state.vscdb"
	workspaceMetaName = "workspace.json"
)

// Config locates the host store files
type Config struct {
	// WorkspaceDir holds one sub-directory per workspace
	WorkspaceDir string
	// GlobalDB is the path of the global record database
	GlobalDB string
}

// SQLite reads the host store directly from its SQLite files. Every call
// opens the database read-only and closes it before returning.
type SQLite struct {
	cfg Config
}

var _ Repository = (*SQLite)(nil)

// NewSQLite creates a SQLite repository
func NewSQLite(cfg Config) *SQLite {
	return &SQLite{cfg: cfg}
}

type kvRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

func (r kvRow) record() *model.RawRecord {
	return model.NewRawRecord(r.Key, r.Value)
}

func openReadOnly(ctx context.Context, path string) (*sqlx.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "database not found",
			goerr.V("path", path), goerr.V("error", err.Error()))
	}

	dsn := "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to open database",
			goerr.V("path", path), goerr.V("error", err.Error()))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to connect database",
			goerr.V("path", path), goerr.V("error", err.Error()))
	}
	return db, nil
}

// eligibleWhere adds the padding threshold to a gendry where map
func eligibleWhere(where map[string]interface{}) map[string]interface{} {
	where["_custom_eligible"] = builder.Custom("LENGTH(value) > ?", model.MinRecordLength)
	return where
}

func (x *SQLite) ListWorkspaces(ctx context.Context) ([]*model.Workspace, error) {
	logger := logging.From(ctx)

	entries, err := os.ReadDir(x.cfg.WorkspaceDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("workspace directory not found", "path", x.cfg.WorkspaceDir)
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read workspace directory", goerr.V("path", x.cfg.WorkspaceDir))
	}

	var workspaces []*model.Workspace
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "listing workspaces canceled")
		}
		if !entry.IsDir() {
			continue
		}

		ws, err := x.loadWorkspace(ctx, filepath.Join(x.cfg.WorkspaceDir, entry.Name()))
		if err != nil {
			logger.Debug("skip workspace", "id", entry.Name(), "error", err)
			continue
		}
		if ws != nil {
			workspaces = append(workspaces, ws)
		}
	}

	sort.SliceStable(workspaces, func(i, j int) bool {
		return workspaces[i].ID < workspaces[j].ID
	})
	return workspaces, nil
}

// loadWorkspace returns nil without error when the directory is not a
// workspace or has no dialog list
func (x *SQLite) loadWorkspace(ctx context.Context, dir string) (*model.Workspace, error) {
	metaPath := filepath.Join(dir, workspaceMetaName)
	dbPath := filepath.Join(dir, workspaceDBName)
	if !fileExists(metaPath) || !fileExists(dbPath) {
		return nil, nil
	}

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read workspace metadata", goerr.V("path", metaPath))
	}
	ws, err := parseWorkspaceMeta(filepath.Base(dir), meta)
	if err != nil {
		return nil, err
	}

	db, err := openReadOnly(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer safeClose(ctx, db)

	query, args, err := builder.BuildSelect(workspaceTable, map[string]interface{}{
		"key":    workspaceDialogKey,
		"_limit": []uint{0, 1},
	}, []string{"key", "value"})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build workspace query")
	}

	var row kvRow
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to query dialog list", goerr.V("path", dbPath))
	}

	dialogs, err := parseDialogList(row.Value)
	if err != nil {
		return nil, err
	}
	ws.Dialogs = dialogs
	return ws, nil
}

func (x *SQLite) GetDialogMetadata(ctx context.Context, id model.DialogID) (*model.RawRecord, error) {
	return x.getRecord(ctx, model.DialogMetadataKey(id))
}

func (x *SQLite) GetMessage(ctx context.Context, dialogID model.DialogID, messageID model.MessageID) (*model.RawRecord, error) {
	return x.getRecord(ctx, model.MessageKey(dialogID, messageID))
}

func (x *SQLite) getRecord(ctx context.Context, key string) (*model.RawRecord, error) {
	db, err := openReadOnly(ctx, x.cfg.GlobalDB)
	if err != nil {
		return nil, err
	}
	defer safeClose(ctx, db)

	query, args, err := builder.BuildSelect(globalTable, eligibleWhere(map[string]interface{}{
		"key":    key,
		"_limit": []uint{0, 1},
	}), []string{"key", "value"})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build record query")
	}

	var row kvRow
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(model.ErrNotFound, "record not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to query record", goerr.V("key", key))
	}
	return row.record(), nil
}

func (x *SQLite) ListMessages(ctx context.Context, dialogID model.DialogID) ([]*model.RawRecord, error) {
	prefix := model.MessageKeyPrefix(dialogID)

	var records []*model.RawRecord
	err := x.scan(ctx, prefix, func(rec *model.RawRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (x *SQLite) ScanMessages(ctx context.Context, fn func(*model.RawRecord) error) error {
	return x.scan(ctx, model.MessageRecordPrefix, fn)
}

// scan streams eligible records whose key starts with prefix in rowid order.
// LIKE is only a coarse filter: it is case-insensitive and treats '_' as a
// wildcard, so keys are checked again here.
func (x *SQLite) scan(ctx context.Context, prefix string, fn func(*model.RawRecord) error) error {
	db, err := openReadOnly(ctx, x.cfg.GlobalDB)
	if err != nil {
		return err
	}
	defer safeClose(ctx, db)

	query, args, err := builder.BuildSelect(globalTable, eligibleWhere(map[string]interface{}{
		"key like": prefix + "%",
		"_orderby": "rowid",
	}), []string{"key", "value"})
	if err != nil {
		return goerr.Wrap(err, "failed to build scan query")
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return goerr.Wrap(err, "failed to scan records", goerr.V("prefix", prefix))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.From(ctx).Debug("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "scan canceled")
		}

		var row kvRow
		if err := rows.StructScan(&row); err != nil {
			return goerr.Wrap(err, "failed to read record")
		}
		if !strings.HasPrefix(row.Key, prefix) {
			continue
		}

		if err := fn(row.record()); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to iterate records")
	}
	return nil
}

func safeClose(ctx context.Context, db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logging.From(ctx).Debug("failed to close database", "error", err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
