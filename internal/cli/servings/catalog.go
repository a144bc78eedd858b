package servings

import (
	"errors"
	"fmt"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

type CategoryAddCmd struct {
	Name  string `arg:"" help:"Category name."`
	Order int    `help:"Position in listings (lower first)." default:"0"`
}

func (c *CategoryAddCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	if _, err := ctx.Stores.Main.GetCategory(cmdCtx, c.Name); err == nil {
		return fmt.Errorf("category %q already exists", c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := ctx.Stores.Main.AddCategory(cmdCtx, models.Category{Name: c.Name, UserOrder: c.Order}); err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	ctx.Printf("✓ Added category %s\n", c.Name)
	return nil
}

type ServingAddCmd struct {
	Name     string `arg:"" help:"Serving name."`
	Category string `required:"" help:"Category name or ID."`
	Calories int    `required:"" help:"Default calories for one serving."`
}

func (c *ServingAddCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	if c.Calories < 0 || c.Calories > constants.MaxDayCalories {
		return fmt.Errorf("calories must be between 0 and %d, got %d", constants.MaxDayCalories, c.Calories)
	}

	category, err := ctx.Stores.Main.GetCategory(cmdCtx, c.Category)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("category %q not found, add it with 'dcalt category add'", c.Category)
	}
	if err != nil {
		return err
	}

	if err := ctx.Stores.Main.AddServing(cmdCtx, models.Serving{
		CategoryID: category.ID,
		Name:       c.Name,
		Calories:   c.Calories,
	}); err != nil {
		return fmt.Errorf("failed to add serving: %w", err)
	}
	ctx.Printf("✓ Added %s (%d cals) to %s\n", c.Name, c.Calories, category.Name)
	return nil
}

type CatalogCmd struct{}

func (c *CatalogCmd) Run(ctx *cli.Context) error {
	cmdCtx, cancel := ctx.Command()
	defer cancel()

	servings, err := ctx.Stores.Main.ListServings(cmdCtx)
	if err != nil {
		return fmt.Errorf("failed to list servings: %w", err)
	}
	if len(servings) == 0 {
		ctx.Println("No servings yet. Add one with 'dcalt serving add'.")
		return nil
	}

	current := ""
	for _, s := range servings {
		if s.CategoryName != current {
			if current != "" {
				ctx.Println()
			}
			current = s.CategoryName
			ctx.Printf("%s:\n", current)
		}
		ctx.Printf("  %-24s %5d cals\n", s.Name, s.Calories)
	}
	return nil
}
