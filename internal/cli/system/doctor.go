package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/dayrun"
	"github.com/julianstephens/dcalt/internal/snapshot"
	"github.com/julianstephens/dcalt/internal/subjective"
	"github.com/julianstephens/dcalt/internal/utils"
)

type DoctorCmd struct{}

type doctorCheck struct {
	name    string
	needsDB bool
	warning bool
	run     func(context.Context, *cli.Context) error
}

var doctorChecks = []doctorCheck{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Settings", needsDB: true, run: checkSettings},
	{name: "Day totals", needsDB: true, run: checkDayTotals},
	{name: "Widget surface", run: checkSurface},
	{name: "Backups present", warning: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true

	for _, p := range ctx.Stores.All() {
		name := fmt.Sprintf("Partition %s reachable", p.Name())
		if err := p.Load(cmdCtx); err != nil {
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			dbReachable = false
			continue
		}
		ctx.Printf("✓ %s: OK\n", name)
	}

	for _, check := range doctorChecks {
		if check.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", check.name)
			continue
		}
		err := check.run(cmdCtx, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", check.name)
		case check.warning:
			ctx.Printf("⚠ %s: WARNING\n", check.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", check.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkSchemaVersion(cmdCtx context.Context, ctx *cli.Context) error {
	for _, p := range ctx.Stores.All() {
		if err := p.ValidateSchema(cmdCtx); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

func checkMigrationsComplete(cmdCtx context.Context, ctx *cli.Context) error {
	for _, p := range ctx.Stores.All() {
		pending, err := p.PendingMigrations(cmdCtx)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		if pending > 0 {
			return fmt.Errorf("%s: %d migrations pending, run 'dcalt init'", p.Name(), pending)
		}
	}
	return nil
}

func checkSettings(cmdCtx context.Context, ctx *cli.Context) error {
	settings, err := ctx.Settings(cmdCtx)
	if err != nil {
		return err
	}
	if _, err := subjective.ParseBoundary(settings.DayStart); err != nil {
		return fmt.Errorf("day start: %w", err)
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("invalid timezone %q", settings.Timezone)
	}
	if settings.TargetCalories < 0 {
		return fmt.Errorf("target calories must be non-negative, got %d", settings.TargetCalories)
	}
	return nil
}

// checkDayTotals compares each stored day total with the sum of its live runs.
func checkDayTotals(cmdCtx context.Context, ctx *cli.Context) error {
	settings, err := ctx.Settings(cmdCtx)
	if err != nil {
		return err
	}

	var mismatches []error
	for _, p := range ctx.Stores.All() {
		days, err := p.ListDayRuns(cmdCtx)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		for _, day := range days {
			stored, computed, err := dayrun.Verify(cmdCtx, p, day.ConsumedDay, settings.MaxDayCalories)
			if err != nil {
				mismatches = append(mismatches, fmt.Errorf("%s %s: %w", p.Name(), day.ConsumedDay, err))
				continue
			}
			if stored != computed {
				mismatches = append(mismatches,
					fmt.Errorf("%s %s: stored total %d, runs add up to %d", p.Name(), day.ConsumedDay, stored, computed))
			}
		}
	}
	return errors.Join(mismatches...)
}

func checkSurface(cmdCtx context.Context, ctx *cli.Context) error {
	_, err := snapshot.Read(cmdCtx, ctx.Surface())
	return err
}

func checkBackupsPresent(cmdCtx context.Context, ctx *cli.Context) error {
	for _, mgr := range ctx.BackupManagers() {
		backups, err := mgr.List()
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(backups) == 0 {
			return errors.New("no backups found - consider creating one with 'dcalt backup create'")
		}
	}
	return nil
}

func checkClockTimezone(context.Context, *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
