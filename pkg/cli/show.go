package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg      config
		dialogID string
		thinking bool
		files    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Usage:       "Dialog ID to show, instead of project and dialog name",
			Destination: &dialogID,
		},
		&cli.BoolFlag{
			Name:        "thinking",
			Usage:       "Include reasoning content",
			Destination: &thinking,
		},
		&cli.BoolFlag{
			Name:        "files",
			Usage:       "Include attached files",
			Destination: &files,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show the transcript of a dialog",
		ArgsUsage: "[project] [dialog-name]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			uc := dialog.New(repo)

			id := model.DialogID(dialogID)
			title := dialogID
			if id == "" {
				ws, err := uc.FindProject(ctx, c.Args().Get(0))
				if err != nil {
					return err
				}
				d, err := dialog.FindDialog(ws, c.Args().Get(1))
				if err != nil {
					return err
				}
				id = d.ID
				title = fmt.Sprintf("%s / %s", ws.ProjectName, d.Name)
			}

			messages, err := uc.Assemble(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to assemble dialog", goerr.V("dialog", id))
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "# %s\n\n", title)
			if len(messages) == 0 {
				fmt.Fprintf(w, "No messages found\n")
				return nil
			}
			for _, msg := range messages {
				printMessage(w, msg, messageStyle{thinking: thinking, files: files})
			}
			return nil
		},
	}
}
