package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/usecase/search"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func contextCommand() *cli.Command {
	var (
		cfg         config
		contextSize int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "context-size",
			Usage:       "Messages on each side of the target",
			Value:       search.DefaultRadius,
			Destination: &contextSize,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "context",
		Usage:     "Show the messages around one message",
		ArgsUsage: "<dialog-id> <message-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 2 {
				return goerr.New("context requires a dialog id and a message id")
			}
			dialogID := model.DialogID(c.Args().Get(0))
			messageID := model.MessageID(c.Args().Get(1))

			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}
			if !c.IsSet("context-size") && cfg.file.Context.Radius != 0 {
				contextSize = int64(cfg.file.Context.Radius)
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			window, err := search.New(repo).ContextWindow(ctx, dialogID, messageID, int(contextSize))
			if err != nil {
				return goerr.Wrap(err, "failed to load context", goerr.V("dialog", dialogID))
			}

			w := c.Root().Writer
			if len(window) == 0 {
				fmt.Fprintf(w, "Message %s not found in dialog %s\n", messageID, dialogID)
				return nil
			}
			for _, cm := range window {
				printMessage(w, cm.Message, messageStyle{target: cm.IsTarget, files: true})
			}
			return nil
		},
	}
}
