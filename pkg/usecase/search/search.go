package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/m-mizutani/chronicle/pkg/decoder"
	"github.com/m-mizutani/chronicle/pkg/interfaces"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/repository"
	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultLimit caps matches when the caller does not choose a limit
	DefaultLimit = 50
	// DefaultRadius is the context window size on each side of a match
	DefaultRadius = 3

	progressInterval = 1000
)

// ErrEmptyPattern is returned when Search is called without a pattern
var ErrEmptyPattern = goerr.New("search pattern is empty")

// UseCase searches message records across all dialogs
type UseCase struct {
	repo    repository.Repository
	decoder interfaces.MessageDecoder
	dialogs *dialog.UseCase
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithDecoder replaces the message decoder
func WithDecoder(d interfaces.MessageDecoder) Option {
	return func(uc *UseCase) {
		uc.decoder = d
	}
}

// New creates a new search UseCase instance
func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:    repo,
		decoder: decoder.New(),
	}

	for _, opt := range opts {
		opt(uc)
	}
	uc.dialogs = dialog.New(repo, dialog.WithDecoder(uc.decoder))

	return uc
}

// Options configures Search
type Options struct {
	Pattern       string
	CaseSensitive bool
	// Project keeps dialogs whose project name contains it, case-insensitively
	Project string
	// Limit caps the number of matches. Zero or less means no cap.
	Limit int
	// Verbose logs scan progress
	Verbose bool
	// Progress, if set, is called periodically with the number of records
	// checked and matches found so far
	Progress func(checked, matched int)
}

type dialogEntry struct {
	dialog *model.Dialog
	ws     *model.Workspace
}

// Search streams every message record and returns the matching sub-fields,
// most recently updated dialogs first. With a limit, the scan stops as soon
// as enough matches are found, so store order decides which are returned.
func (uc *UseCase) Search(ctx context.Context, opts Options) ([]*model.Match, error) {
	if opts.Pattern == "" {
		return nil, ErrEmptyPattern
	}
	logger := logging.From(ctx)

	lookup, err := uc.dialogLookup(ctx, opts.Project)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		logger.Info("searching dialogs", "dialogs", len(lookup), "pattern", opts.Pattern)
	}

	m := newMatcher(opts.Pattern, opts.CaseSensitive)
	var matches []*model.Match
	checked := 0

	scanErr := uc.repo.ScanMessages(ctx, func(rec *model.RawRecord) error {
		checked++
		if checked%progressInterval == 0 {
			if opts.Verbose {
				logger.Info("scan progress", "checked", checked, "matches", len(matches))
			}
			if opts.Progress != nil {
				opts.Progress(checked, len(matches))
			}
		}

		dialogID, _, ok := model.ParseMessageKey(rec.Key)
		if !ok {
			return nil
		}
		entry, ok := lookup[dialogID]
		if !ok {
			return nil
		}
		if !m.precheck(rec.Value) {
			return nil
		}

		msg, err := uc.decoder.Decode(rec)
		if err != nil {
			logger.Debug("drop undecodable record", "key", rec.Key, "error", err)
			return nil
		}
		if msg == nil {
			return nil
		}

		for _, match := range m.matches(msg) {
			match.DialogID = dialogID
			match.DialogName = entry.dialog.Name
			match.ProjectName = entry.ws.ProjectName
			match.FolderPath = entry.ws.FolderPath
			match.CreatedAt = entry.dialog.CreatedAt
			match.LastUpdatedAt = entry.dialog.LastUpdatedAt
			if match.DialogName == "" {
				match.DialogName = "Untitled"
			}
			matches = append(matches, match)
		}

		if opts.Limit > 0 && len(matches) >= opts.Limit {
			return repository.ErrStopScan
		}
		return nil
	})
	if scanErr != nil {
		if unavailable(ctx, scanErr) {
			return nil, nil
		}
		return nil, goerr.Wrap(scanErr, "failed to scan messages")
	}

	if opts.Verbose {
		logger.Info("search finished", "checked", checked, "matches", len(matches))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].LastUpdatedAt > matches[j].LastUpdatedAt
	})
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func (uc *UseCase) dialogLookup(ctx context.Context, project string) (map[model.DialogID]dialogEntry, error) {
	workspaces, err := uc.dialogs.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	project = strings.ToLower(project)
	lookup := make(map[model.DialogID]dialogEntry)
	for _, ws := range workspaces {
		if project != "" && !strings.Contains(strings.ToLower(ws.ProjectName), project) {
			continue
		}
		for _, d := range ws.Dialogs {
			if d.ID == "" {
				continue
			}
			lookup[d.ID] = dialogEntry{dialog: d, ws: ws}
		}
	}
	return lookup, nil
}

// ContextWindow returns the messages around messageID in its dialog, the
// target flagged. An unknown dialog or message yields an empty result.
func (uc *UseCase) ContextWindow(ctx context.Context, dialogID model.DialogID, messageID model.MessageID, radius int) ([]*model.ContextMessage, error) {
	return uc.dialogs.Window(ctx, dialogID, messageID, radius)
}

// GroupByDialog counts matches per dialog, most recently updated first
func GroupByDialog(matches []*model.Match) []*model.DialogMatches {
	index := make(map[model.DialogID]*model.DialogMatches)
	var groups []*model.DialogMatches
	for _, m := range matches {
		g, ok := index[m.DialogID]
		if !ok {
			g = &model.DialogMatches{
				DialogID:      m.DialogID,
				DialogName:    m.DialogName,
				ProjectName:   m.ProjectName,
				LastUpdatedAt: m.LastUpdatedAt,
			}
			index[m.DialogID] = g
			groups = append(groups, g)
		}
		g.Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastUpdatedAt > groups[j].LastUpdatedAt
	})
	return groups
}

func unavailable(ctx context.Context, err error) bool {
	if errors.Is(err, model.ErrStoreUnavailable) {
		logging.From(ctx).Debug("store unavailable", "error", err)
		return true
	}
	return false
}
