package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/chronicle/pkg/usecase/search"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg           config
		project       string
		limit         int64
		caseSensitive bool
		showContext   bool
		contextSize   int64
		listDialogs   bool
		verbose       bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Only search projects whose name contains this text",
			Destination: &project,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of matches, 0 for no limit",
			Value:       search.DefaultLimit,
			Sources:     cli.EnvVars("CHRONICLE_SEARCH_LIMIT"),
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "case-sensitive",
			Aliases:     []string{"c"},
			Usage:       "Match case exactly",
			Destination: &caseSensitive,
		},
		&cli.BoolFlag{
			Name:        "show-context",
			Usage:       "Print the messages around each match",
			Destination: &showContext,
		},
		&cli.IntFlag{
			Name:        "context-size",
			Usage:       "Messages on each side of a match for --show-context",
			Value:       search.DefaultRadius,
			Destination: &contextSize,
		},
		&cli.BoolFlag{
			Name:        "list-dialogs",
			Usage:       "Print matching dialogs with match counts instead of matches",
			Destination: &listDialogs,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "Log scan progress",
			Destination: &verbose,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search all dialogs for a text",
		ArgsUsage: "<pattern>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("search requires exactly one pattern argument")
			}
			pattern := c.Args().First()

			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}
			if !c.IsSet("limit") && cfg.file.Search.Limit != 0 {
				limit = int64(cfg.file.Search.Limit)
			}
			if !c.IsSet("case-sensitive") && cfg.file.Search.CaseSensitive {
				caseSensitive = true
			}
			if !c.IsSet("context-size") && cfg.file.Context.Radius != 0 {
				contextSize = int64(cfg.file.Context.Radius)
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			uc := search.New(repo)

			opts := search.Options{
				Pattern:       pattern,
				CaseSensitive: caseSensitive,
				Project:       project,
				Limit:         int(limit),
				Verbose:       verbose,
			}

			progress := startProgress(c.Root().ErrWriter, verbose)
			opts.Progress = progress.update
			matches, err := uc.Search(ctx, opts)
			progress.stop()
			if err != nil {
				return goerr.Wrap(err, "failed to search", goerr.V("pattern", pattern))
			}

			w := c.Root().Writer
			if len(matches) == 0 {
				fmt.Fprintf(w, "No matches found for %q\n", pattern)
				return nil
			}

			if listDialogs {
				for _, g := range search.GroupByDialog(matches) {
					fmt.Fprintf(w, "%s\t%d matches\t%s\t%s\t%s\n",
						g.DialogID, g.Count, formatMs(g.LastUpdatedAt), g.ProjectName, g.DialogName)
				}
				return nil
			}

			fmt.Fprintf(w, "Found %d matches for %q\n\n", len(matches), pattern)
			for _, m := range matches {
				printMatch(w, m)
				if showContext {
					window, err := uc.ContextWindow(ctx, m.DialogID, m.MessageID, int(contextSize))
					if err != nil {
						return goerr.Wrap(err, "failed to load context", goerr.V("dialog", m.DialogID))
					}
					fmt.Fprintf(w, "\n")
					for _, cm := range window {
						printMessage(w, cm.Message, messageStyle{target: cm.IsTarget})
					}
				}
				fmt.Fprintf(w, "\n")
			}
			return nil
		},
	}
}

// progress shows a spinner with scan counters while searching. It is silent
// unless w is a terminal, and verbose logging takes over progress reporting.
type progress struct {
	spinner *spinner.Spinner
}

func startProgress(w io.Writer, verbose bool) *progress {
	f, ok := w.(*os.File)
	if verbose || !ok || !isatty.IsTerminal(f.Fd()) {
		return &progress{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " searching..."
	s.Start()
	return &progress{spinner: s}
}

func (x *progress) update(checked, matched int) {
	if x.spinner == nil {
		return
	}
	x.spinner.Lock()
	x.spinner.Suffix = fmt.Sprintf(" checked %d records, %d matches", checked, matched)
	x.spinner.Unlock()
}

func (x *progress) stop() {
	if x.spinner != nil {
		x.spinner.Stop()
	}
}
