package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/widget"
)

type WidgetCmd struct {
	Serve bool `help:"Keep running as the widget host, redrawing on reloads and surface changes."`
}

func (c *WidgetCmd) Run(ctx *cli.Context) error {
	out := ctx.Out
	if out == nil {
		out = os.Stdout
	}
	host := widget.NewHost(ctx.Surface(), out)

	if !c.Serve {
		cmdCtx, cancel := ctx.Command()
		defer cancel()
		return host.Draw(cmdCtx)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := host.Serve(sigCtx); err != nil {
		return fmt.Errorf("widget host stopped: %w", err)
	}
	return nil
}

type ArchiveSyncCmd struct{}

func (c *ArchiveSyncCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()

	result, err := coord.ArchiveSync(cmdCtx)
	if err != nil {
		return fmt.Errorf("archive sync failed: %w", err)
	}
	if result.Runs == 0 {
		ctx.Println("Archive is up to date.")
		return nil
	}
	ctx.Printf("✓ Copied %d runs across %d days to the archive\n", result.Runs, len(result.Days))
	return nil
}
