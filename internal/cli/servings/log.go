package servings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/coordinator"
	"github.com/julianstephens/dcalt/internal/dayrun"
	"github.com/julianstephens/dcalt/internal/utils"
)

type LogCmd struct {
	Serving  string `arg:"" help:"Serving name, ID or archive ID."`
	Calories *int   `help:"Calories for this entry instead of the serving's default."`
	At       string `help:"When it was eaten: HH:MM today or 'YYYY-MM-DD HH:MM'. Defaults to now."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()

	at, err := parseAt(c.At, coord.Settings().Timezone, time.Now())
	if err != nil {
		return err
	}

	run, uri, err := coord.LogServing(cmdCtx, coordinator.LogRequest{
		Serving:  c.Serving,
		Calories: c.Calories,
		At:       at,
	})
	if errors.Is(err, dayrun.ErrCalorieOverflow) {
		return fmt.Errorf("not logged, the day total would exceed %d calories: %w", coord.Settings().MaxDayCalories, err)
	}
	if err != nil {
		return fmt.Errorf("failed to log serving: %w", err)
	}

	ctx.Printf("✓ Logged %s (%d cals) on %s at %s\n", run.ServingName, run.Calories, run.ConsumedDay, run.ConsumedTime)
	ctx.Printf("  %s\n", uri)
	return nil
}

// parseAt reads an optional consumption time in the configured timezone.
func parseAt(raw, timezone string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	loc, err := utils.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	if t, err := time.ParseInLocation(constants.DateFormat+" "+constants.TimeFormat, raw, loc); err == nil {
		return t, nil
	}
	if _, err := utils.ParseTime(raw); err == nil {
		return utils.CombineDateAndTime(now.In(loc).Format(constants.DateFormat), raw, loc)
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected HH:MM or 'YYYY-MM-DD HH:MM')", raw)
}
