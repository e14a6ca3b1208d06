package dialog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// SortKey selects the ordering of ListDialogs
type SortKey string

const (
	SortByDate    SortKey = "date"
	SortByName    SortKey = "name"
	SortByProject SortKey = "project"
)

// ParseSortKey validates a sort key name. An empty name means SortByDate.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(s)); key {
	case "":
		return SortByDate, nil
	case SortByDate, SortByName, SortByProject:
		return key, nil
	default:
		return "", goerr.New("unknown sort key", goerr.V("key", s))
	}
}

// ListOptions filters and orders ListDialogs results
type ListOptions struct {
	// Since and Until bound the dialog date, both inclusive. Zero means unbounded.
	Since time.Time
	Until time.Time
	// Project keeps dialogs whose project name contains it, case-insensitively
	Project string
	SortBy  SortKey
	Desc    bool
	// UseUpdated filters and date-sorts by last update instead of creation
	UseUpdated bool
}

// ListProjects returns all workspaces, most recently active first
func (uc *UseCase) ListProjects(ctx context.Context) ([]*model.Workspace, error) {
	workspaces, err := uc.repo.ListWorkspaces(ctx)
	if err != nil {
		if unavailable(ctx, err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to list workspaces")
	}

	sort.SliceStable(workspaces, func(i, j int) bool {
		return latestUpdate(workspaces[i]) > latestUpdate(workspaces[j])
	})
	return workspaces, nil
}

func latestUpdate(ws *model.Workspace) int64 {
	if d := ws.LatestDialog(); d != nil {
		return d.LastUpdatedAt
	}
	return 0
}

// FindProject returns the most recently active project whose name contains
// name, case-insensitively. An empty name selects the most recent project.
// It returns model.ErrNotFound when nothing matches.
func (uc *UseCase) FindProject(ctx context.Context, name string) (*model.Workspace, error) {
	projects, err := uc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.ProjectName), needle) {
			return p, nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "project not found", goerr.V("project", name))
}

// FindDialog returns the first dialog of ws whose name contains name,
// case-insensitively. An empty name selects the latest dialog.
func FindDialog(ws *model.Workspace, name string) (*model.Dialog, error) {
	if name == "" {
		if d := ws.LatestDialog(); d != nil {
			return d, nil
		}
		return nil, goerr.Wrap(model.ErrNotFound, "project has no dialogs", goerr.V("project", ws.ProjectName))
	}

	needle := strings.ToLower(name)
	for _, d := range ws.Dialogs {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "dialog not found",
		goerr.V("project", ws.ProjectName), goerr.V("dialog", name))
}

// ListDialogs returns the dialogs of every project joined with their project
func (uc *UseCase) ListDialogs(ctx context.Context, opts ListOptions) ([]*model.DialogSummary, error) {
	workspaces, err := uc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	since, until := model.TimeMs(opts.Since), model.TimeMs(opts.Until)
	project := strings.ToLower(opts.Project)

	var summaries []*model.DialogSummary
	for _, ws := range workspaces {
		if project != "" && !strings.Contains(strings.ToLower(ws.ProjectName), project) {
			continue
		}

		for _, d := range ws.Dialogs {
			date := d.CreatedAt
			if opts.UseUpdated {
				date = d.LastUpdatedAt
			}
			if since != 0 && date < since {
				continue
			}
			if until != 0 && date > until {
				continue
			}

			summaries = append(summaries, summarize(ws, d))
		}
	}

	sortSummaries(summaries, opts)
	return summaries, nil
}

func summarize(ws *model.Workspace, d *model.Dialog) *model.DialogSummary {
	s := &model.DialogSummary{
		Dialog:      *d,
		ProjectName: ws.ProjectName,
		FolderPath:  ws.FolderPath,
		WorkspaceID: ws.ID,
	}
	if s.ID == "" {
		s.ID = unknownDialog
	}
	if s.Name == "" {
		s.Name = untitledDialog
	}
	return s
}

func sortSummaries(summaries []*model.DialogSummary, opts ListOptions) {
	var less func(a, b *model.DialogSummary) bool
	switch opts.SortBy {
	case SortByName:
		less = func(a, b *model.DialogSummary) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortByProject:
		less = func(a, b *model.DialogSummary) bool {
			pa, pb := strings.ToLower(a.ProjectName), strings.ToLower(b.ProjectName)
			if pa != pb {
				return pa < pb
			}
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	default:
		less = func(a, b *model.DialogSummary) bool {
			if opts.UseUpdated {
				return a.LastUpdatedAt < b.LastUpdatedAt
			}
			return a.CreatedAt < b.CreatedAt
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if opts.Desc {
			return less(summaries[j], summaries[i])
		}
		return less(summaries[i], summaries[j])
	})
}
