package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing partition databases before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		for _, p := range ctx.Stores.All() {
			s, ok := p.(*sqlite.Store)
			if !ok {
				return fmt.Errorf("--force is only supported for SQLite partitions (%s is at %s)", p.Name(), p.Location())
			}
			if err := resetSQLite(ctx, s); err != nil {
				return err
			}
		}
	}

	cmdCtx, cancel := ctx.Command()
	defer cancel()

	if err := ctx.Stores.Init(cmdCtx); err != nil {
		return err
	}
	for _, p := range ctx.Stores.All() {
		ctx.Printf("Initialized %s partition at: %s\n", p.Name(), p.Location())
	}
	return nil
}

func resetSQLite(ctx *cli.Context, s *sqlite.Store) error {
	path := s.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	// Close first so the file is not held open while deleting it.
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	}
	ctx.Printf("Deleted existing %s database at: %s\n", s.Name(), path)
	return nil
}
