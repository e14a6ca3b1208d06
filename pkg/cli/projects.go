package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func projectsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "projects",
		Usage: "List projects with recorded dialogs",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			projects, err := dialog.New(repo).ListProjects(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list projects")
			}

			w := c.Root().Writer
			if len(projects) == 0 {
				fmt.Fprintf(w, "No projects found\n")
				return nil
			}
			for _, p := range projects {
				latest := "-"
				if d := p.LatestDialog(); d != nil {
					latest = formatMs(d.LastUpdatedAt)
				}
				fmt.Fprintf(w, "%s\t%d dialogs\t%s\t%s\n", p.ProjectName, len(p.Dialogs), latest, p.FolderPath)
			}
			return nil
		},
	}
}
