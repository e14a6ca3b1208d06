package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// Version is reported by --version and the MCP server
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp(os.Stdout, os.Stderr).Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp(w, errW io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "chronicle",
		Usage:     "Browse and search Cursor AI dialog history",
		Version:   Version,
		Writer:    w,
		ErrWriter: errW,
		Commands: []*cli.Command{
			projectsCommand(),
			dialogsCommand(),
			showCommand(),
			searchCommand(),
			contextCommand(),
			serveCommand(),
		},
	}
}
