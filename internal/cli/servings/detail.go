package servings

import (
	"fmt"

	"github.com/julianstephens/dcalt/internal/cli"
)

type DetailCmd struct {
	URI string `arg:"" help:"dcalt:// serving run URI."`
}

func (c *DetailCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()

	d, err := coord.ServingDetail(cmdCtx, c.URI)
	if err != nil {
		return fmt.Errorf("failed to load serving: %w", err)
	}

	ctx.Printf("%s\n", d.Run.ServingName)
	if d.Run.CategoryName != "" {
		ctx.Printf("  Category:  %s\n", d.Run.CategoryName)
	}
	ctx.Printf("  Calories:  %d\n", d.Run.Calories)
	ctx.Printf("  Eaten:     %s\n", d.ConsumedAt.Format("Mon Jan 2 2006 15:04"))
	ctx.Printf("  Day:       %s (%s)\n", d.Run.ConsumedDay, d.URI.Partition)
	ctx.Printf("  Share:     %.0f%% of %d cals\n", d.Percent, d.DayTotal)
	if d.Run.UserRemoved {
		ctx.Println("  Removed:   yes")
	}
	ctx.Printf("  Key:       %s\n", d.Run.Key())
	return nil
}
