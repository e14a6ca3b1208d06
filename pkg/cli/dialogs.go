package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func dialogsCommand() *cli.Command {
	var (
		cfg        config
		project    string
		since      string
		until      string
		sortBy     string
		desc       bool
		useUpdated bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Only dialogs of projects whose name contains this text",
			Destination: &project,
		},
		&cli.StringFlag{
			Name:        "since",
			Usage:       "Earliest date (YYYY-MM-DD)",
			Destination: &since,
		},
		&cli.StringFlag{
			Name:        "until",
			Usage:       "Latest date (YYYY-MM-DD)",
			Destination: &until,
		},
		&cli.StringFlag{
			Name:        "sort",
			Usage:       "Sort key: date, name or project",
			Value:       string(dialog.SortByDate),
			Destination: &sortBy,
		},
		&cli.BoolFlag{
			Name:        "desc",
			Usage:       "Sort in descending order",
			Destination: &desc,
		},
		&cli.BoolFlag{
			Name:        "updated",
			Usage:       "Use last update time instead of creation time",
			Destination: &useUpdated,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "dialogs",
		Usage: "List dialogs across projects",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			opts := dialog.ListOptions{
				Project:    project,
				Desc:       desc,
				UseUpdated: useUpdated,
			}
			if opts.SortBy, err = dialog.ParseSortKey(sortBy); err != nil {
				return err
			}
			if opts.Since, err = dialog.ParseDate(since); err != nil {
				return err
			}
			if opts.Until, err = dialog.ParseDate(until); err != nil {
				return err
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			summaries, err := dialog.New(repo).ListDialogs(ctx, opts)
			if err != nil {
				return goerr.Wrap(err, "failed to list dialogs")
			}

			w := c.Root().Writer
			if len(summaries) == 0 {
				fmt.Fprintf(w, "No dialogs found\n")
				return nil
			}
			for _, s := range summaries {
				date := s.CreatedAt
				if useUpdated {
					date = s.LastUpdatedAt
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, formatMs(date), s.ProjectName, s.Name)
			}
			return nil
		},
	}
}
