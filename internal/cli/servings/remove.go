package servings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/coordinator"
	"github.com/julianstephens/dcalt/internal/dayrun"
	dcerrors "github.com/julianstephens/dcalt/internal/errors"
	"github.com/julianstephens/dcalt/internal/models"
)

// confirmFunc asks before a removal. Tests replace it.
var confirmFunc = func(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Remove").
		Negative("Keep").
		Value(&confirmed).
		Run()
	return confirmed, err
}

type RemoveCmd struct {
	Ref string `arg:"" help:"Run key (archiveID@YYYY-MM-DD@HH:MM) or dcalt:// serving run URI."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	key, label, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirmFunc(fmt.Sprintf("Remove %s from every partition?", label))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	coord, flush, err := ctx.Coordinator(cmdCtx)
	if err != nil {
		return err
	}
	defer flush()

	changed, err := coord.RemoveServing(cmdCtx, key)
	switch {
	case errors.Is(err, coordinator.ErrAllPartitionsMissing):
		ctx.Println(dcerrors.FormatNotice(err))
		return nil
	case errors.Is(err, dayrun.ErrCalorieOverflow):
		ctx.Println(dcerrors.FormatWarning(fmt.Errorf("day total left unchanged: %w", err)))
	case err != nil && len(changed) == 0:
		return fmt.Errorf("failed to remove serving: %w", err)
	case err != nil:
		ctx.Println(dcerrors.FormatWarning(err))
	}

	names := make([]string, 0, len(changed))
	for _, p := range changed {
		names = append(names, string(p))
	}
	if len(names) > 0 {
		ctx.Printf("✓ Removed %s from %s\n", label, strings.Join(names, ", "))
	}
	return nil
}

// resolve accepts either a run key or a URI.
func (c *RemoveCmd) resolve(ctx *cli.Context) (models.RunKey, string, error) {
	if strings.HasPrefix(c.Ref, constants.URIScheme+"://") {
		cmdCtx, cancel := ctx.Command()
		defer cancel()

		_, run, err := ctx.Stores.ResolveURI(cmdCtx, c.Ref)
		if err != nil {
			return models.RunKey{}, "", fmt.Errorf("failed to resolve %s: %w", c.Ref, err)
		}
		label := fmt.Sprintf("%s (%d cals, %s %s)", run.ServingName, run.Calories, run.ConsumedDay, run.ConsumedTime)
		return run.Key(), label, nil
	}

	key, err := models.ParseRunKey(c.Ref)
	if err != nil {
		return models.RunKey{}, "", err
	}
	return key, key.String(), nil
}
