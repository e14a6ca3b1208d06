package repository

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const fileURIScheme = "file://"

type workspaceMeta struct {
	Folder string `json:"folder"`
}

// parseWorkspaceMeta reads workspace.json. A file:// folder is unescaped and
// the project is named after its last path element; anything else is used
// verbatim for both.
func parseWorkspaceMeta(id string, data []byte) (*model.Workspace, error) {
	var meta workspaceMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, goerr.Wrap(err, "failed to parse workspace metadata", goerr.V("workspace", id))
	}

	ws := &model.Workspace{
		ID:          id,
		ProjectName: meta.Folder,
		FolderPath:  meta.Folder,
	}

	if rest, ok := strings.CutPrefix(meta.Folder, fileURIScheme); ok {
		folder, err := url.PathUnescape(rest)
		if err != nil {
			folder = rest
		}
		ws.FolderPath = folder
		if trimmed := strings.TrimRight(folder, "/"); trimmed != "" {
			ws.ProjectName = path.Base(trimmed)
		} else {
			ws.ProjectName = folder
		}
	}

	return ws, nil
}

type dialogList struct {
	AllComposers []dialogHead `json:"allComposers"`
}

type dialogHead struct {
	ComposerID    string      `json:"composerId"`
	Name          string      `json:"name"`
	CreatedAt     json.Number `json:"createdAt"`
	LastUpdatedAt json.Number `json:"lastUpdatedAt"`
}

// parseDialogList reads the workspace dialog list record. Entries are kept
// even without an id so they can still be listed.
func parseDialogList(data []byte) ([]*model.Dialog, error) {
	var list dialogList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, goerr.Wrap(model.ErrInvalidRecord, "failed to parse dialog list", goerr.V("error", err.Error()))
	}

	dialogs := make([]*model.Dialog, 0, len(list.AllComposers))
	for _, head := range list.AllComposers {
		dialogs = append(dialogs, &model.Dialog{
			ID:            model.DialogID(head.ComposerID),
			Name:          head.Name,
			CreatedAt:     msNumber(head.CreatedAt),
			LastUpdatedAt: msNumber(head.LastUpdatedAt),
		})
	}
	return dialogs, nil
}

func msNumber(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}
