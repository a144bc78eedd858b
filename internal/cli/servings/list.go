package servings

import (
	"fmt"
	"time"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/utils"
)

type ListCmd struct {
	Day       string `arg:"" optional:"" help:"Day bucket (YYYY-MM-DD). Defaults to today."`
	Partition string `help:"Partition to read (main or archive)." default:"main" enum:"main,archive"`
	Keys      bool   `help:"Show run keys and URIs for removal and deep links."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	partition, err := models.ParsePartition(c.Partition)
	if err != nil {
		return err
	}

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()

	day := c.Day
	if day == "" {
		if day, err = coord.TodayBucket(time.Now()); err != nil {
			return err
		}
	} else if !utils.ValidateDateFormat(day) {
		return fmt.Errorf("invalid day %q (expected YYYY-MM-DD)", day)
	}

	runs, err := coord.ListServings(cmdCtx, day, partition)
	if err != nil {
		return fmt.Errorf("failed to list servings: %w", err)
	}
	total, err := coord.Total(cmdCtx, day, partition)
	if err != nil {
		return fmt.Errorf("failed to read day total: %w", err)
	}

	ctx.Printf("%s (%s):\n\n", day, partition)
	if len(runs) == 0 {
		ctx.Println("  No servings.")
	}
	for _, run := range runs {
		ctx.Printf("  %s  %-24s %5d cals\n", run.ConsumedTime, run.ServingName, run.Calories)
		if c.Keys {
			ctx.Printf("         key: %s\n", run.Key())
			ctx.Printf("         uri: %s\n", storage.RunURI{Partition: partition, ID: run.ID})
		}
	}
	ctx.Printf("\nTotal: %d cals\n", total)
	return nil
}
