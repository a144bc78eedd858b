package servings

import (
	"time"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	unavailable := func(err error) error {
		logger.Warn("Failed to load today's servings", "error", err)
		ctx.Println("Today's data not available.")
		return nil
	}

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return unavailable(err)
	}
	defer flush()

	today, err := coord.TodayBucket(time.Now())
	if err != nil {
		return unavailable(err)
	}
	runs, err := coord.ListServings(cmdCtx, today, models.PartitionMain)
	if err != nil {
		return unavailable(err)
	}
	total, err := coord.Total(cmdCtx, today, models.PartitionMain)
	if err != nil {
		return unavailable(err)
	}

	ctx.Printf("Today (%s, day starts %s):\n\n", today, coord.Boundary())
	if len(runs) == 0 {
		ctx.Println("  Nothing logged yet.")
	}
	for _, run := range runs {
		ctx.Printf("  %s  %-24s %5d cals\n", run.ConsumedTime, run.ServingName, run.Calories)
	}
	ctx.Printf("\nTotal: %d cals\n", total)

	target := coord.Settings().TargetCalories
	if target > 0 {
		ctx.Printf("Remaining: %d cals\n", target-total)
	}
	return nil
}
