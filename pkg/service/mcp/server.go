package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/chronicle/pkg/usecase/search"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "chronicle"

// Server exposes dialog history to MCP clients as tools
type Server struct {
	dialogs  *dialog.UseCase
	searcher *search.UseCase
	version  string
	server   *mcp.Server
}

// Option is a functional option for Server
type Option func(*Server)

// WithVersion sets the version reported to clients
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a Server and registers its tools
func New(dialogs *dialog.UseCase, searcher *search.UseCase, opts ...Option) (*Server, error) {
	s := &Server{
		dialogs:  dialogs,
		searcher: searcher,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, nil)

	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves a single client over stdin/stdout until ctx is canceled or the
// client disconnects
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("serving MCP over stdio", "version", s.version)
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP stdio server stopped")
	}
	return nil
}

// Connect serves one session over transport
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	session, err := s.server.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect MCP session")
	}
	return session, nil
}

// Handler returns a streamable HTTP handler serving the same tools
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) registerTools() error {
	listDialogsSchema, err := inputSchema[listDialogsParams](func(schema *jsonschema.Schema) {
		enum(schema, "sort", string(dialog.SortByDate), string(dialog.SortByName), string(dialog.SortByProject))
	})
	if err != nil {
		return err
	}
	searchSchema, err := inputSchema[searchParams](func(schema *jsonschema.Schema) {
		minimum(schema, "limit", 0)
	})
	if err != nil {
		return err
	}
	contextSchema, err := inputSchema[contextParams](func(schema *jsonschema.Schema) {
		minimum(schema, "radius", 0)
	})
	if err != nil {
		return err
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List project workspaces that have recorded dialogs, most recently active first",
	}, s.listProjects)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_dialogs",
		Description: "List dialogs across projects with optional date and project filters",
		InputSchema: listDialogsSchema,
	}, s.listDialogs)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "show_dialog",
		Description: "Return the full transcript of one dialog in order",
	}, s.showDialog)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_history",
		Description: "Search all dialog messages, tool calls and reasoning for a substring",
		InputSchema: searchSchema,
	}, s.searchHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_context",
		Description: "Return the messages around one message of a dialog",
		InputSchema: contextSchema,
	}, s.getContext)

	return nil
}

type listProjectsParams struct{}

type listDialogsParams struct {
	Project    string `json:"project,omitempty" jsonschema:"Keep projects whose name contains this text (case-insensitive)"`
	Since      string `json:"since,omitempty" jsonschema:"Earliest dialog date, e.g. 2024-03-01"`
	Until      string `json:"until,omitempty" jsonschema:"Latest dialog date, e.g. 2024-03-31"`
	Sort       string `json:"sort,omitempty" jsonschema:"Sort key: date, name or project"`
	Desc       bool   `json:"desc,omitempty" jsonschema:"Sort in descending order"`
	UseUpdated bool   `json:"use_updated,omitempty" jsonschema:"Filter and sort by last update instead of creation"`
}

type showDialogParams struct {
	DialogID string `json:"dialog_id" jsonschema:"Dialog id as returned by list_dialogs"`
}

type searchParams struct {
	Pattern       string `json:"pattern" jsonschema:"Substring to search for"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"Match case exactly"`
	Project       string `json:"project,omitempty" jsonschema:"Keep projects whose name contains this text (case-insensitive)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of matches, 50 when omitted"`
}

type contextParams struct {
	DialogID  string `json:"dialog_id" jsonschema:"Dialog id of the match"`
	MessageID string `json:"message_id" jsonschema:"Message id of the match"`
	Radius    *int   `json:"radius,omitempty" jsonschema:"Number of messages on each side, 3 when omitted"`
}

func (s *Server) listProjects(ctx context.Context, req *mcp.CallToolRequest, _ *listProjectsParams) (*mcp.CallToolResult, any, error) {
	projects, err := s.dialogs.ListProjects(ctx)
	if err != nil {
		return nil, nil, err
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, newProjectView(p))
	}
	return jsonResult(views)
}

func (s *Server) listDialogs(ctx context.Context, req *mcp.CallToolRequest, params *listDialogsParams) (*mcp.CallToolResult, any, error) {
	opts := dialog.ListOptions{
		Project:    params.Project,
		Desc:       params.Desc,
		UseUpdated: params.UseUpdated,
	}

	var err error
	if opts.SortBy, err = dialog.ParseSortKey(params.Sort); err != nil {
		return nil, nil, err
	}
	if opts.Since, err = dialog.ParseDate(params.Since); err != nil {
		return nil, nil, err
	}
	if opts.Until, err = dialog.ParseDate(params.Until); err != nil {
		return nil, nil, err
	}

	summaries, err := s.dialogs.ListDialogs(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	views := make([]dialogView, 0, len(summaries))
	for _, d := range summaries {
		views = append(views, newDialogView(d))
	}
	return jsonResult(views)
}

func (s *Server) showDialog(ctx context.Context, req *mcp.CallToolRequest, params *showDialogParams) (*mcp.CallToolResult, any, error) {
	if params.DialogID == "" {
		return nil, nil, goerr.New("dialog_id is required")
	}

	messages, err := s.dialogs.Assemble(ctx, model.DialogID(params.DialogID))
	if err != nil {
		return nil, nil, err
	}

	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, newMessageView(msg))
	}
	return jsonResult(views)
}

func (s *Server) searchHistory(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}

	logging.From(ctx).Debug("search requested", "pattern", params.Pattern, "project", params.Project, "limit", limit)
	matches, err := s.searcher.Search(ctx, search.Options{
		Pattern:       params.Pattern,
		CaseSensitive: params.CaseSensitive,
		Project:       params.Project,
		Limit:         limit,
	})
	if err != nil {
		return nil, nil, err
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, newMatchView(m))
	}
	return jsonResult(views)
}

func (s *Server) getContext(ctx context.Context, req *mcp.CallToolRequest, params *contextParams) (*mcp.CallToolResult, any, error) {
	if params.DialogID == "" || params.MessageID == "" {
		return nil, nil, goerr.New("dialog_id and message_id are required")
	}
	radius := search.DefaultRadius
	if params.Radius != nil {
		radius = *params.Radius
	}

	window, err := s.searcher.ContextWindow(ctx, model.DialogID(params.DialogID), model.MessageID(params.MessageID), radius)
	if err != nil {
		return nil, nil, err
	}

	views := make([]messageView, 0, len(window))
	for _, cm := range window {
		v := newMessageView(cm.Message)
		v.IsTarget = cm.IsTarget
		views = append(views, v)
	}
	return jsonResult(views)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
