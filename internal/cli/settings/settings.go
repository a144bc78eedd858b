package settings

import (
	"fmt"
	"regexp"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/subjective"
	"github.com/julianstephens/dcalt/internal/utils"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	DayStart       *string `help:"Time the day starts (HH:MM, minute 00-59)."`
	TargetCalories *int    `help:"Daily calorie goal."`
	AccentColor    *string `help:"Accent color as #RRGGBB."`
	Timezone       *string `help:"IANA timezone name, or Local."`
	MaxDayCalories *int    `help:"Largest day total accepted before logging is refused."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	settings, err := ctx.Settings(cmdCtx)
	if err != nil {
		return err
	}

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Day Start:        %s\n", settings.DayStart)
		ctx.Printf("  Timezone:         %s\n", settings.Timezone)
		ctx.Printf("  Target Calories:  %d\n", settings.TargetCalories)
		ctx.Printf("  Max Day Calories: %d\n", settings.MaxDayCalories)
		ctx.Printf("  Accent Color:     %s\n", settings.AccentColor)
		return nil
	}

	updated := false
	if c.DayStart != nil {
		if _, err := subjective.ParseBoundary(*c.DayStart); err != nil {
			return fmt.Errorf("invalid day start: %w", err)
		}
		settings.DayStart = *c.DayStart
		updated = true
	}
	if c.TargetCalories != nil {
		if *c.TargetCalories <= 0 {
			return fmt.Errorf("target calories must be positive, got %d", *c.TargetCalories)
		}
		settings.TargetCalories = *c.TargetCalories
		updated = true
	}
	if c.AccentColor != nil {
		if !hexColor.MatchString(*c.AccentColor) {
			return fmt.Errorf("invalid accent color %q (expected #RRGGBB)", *c.AccentColor)
		}
		settings.AccentColor = *c.AccentColor
		updated = true
	}
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.MaxDayCalories != nil {
		if *c.MaxDayCalories <= 0 || *c.MaxDayCalories > constants.MaxDayCalories {
			return fmt.Errorf("max day calories must be between 1 and %d, got %d", constants.MaxDayCalories, *c.MaxDayCalories)
		}
		settings.MaxDayCalories = *c.MaxDayCalories
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	if err := ctx.Stores.Main.SaveSettings(cmdCtx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Println("Settings updated successfully.")

	// The widget shows the target and accent, so republish today.
	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()
	if err := coord.Publish(cmdCtx, true); err != nil {
		logger.Warn("Failed to republish snapshot", "error", err)
	}
	return nil
}
