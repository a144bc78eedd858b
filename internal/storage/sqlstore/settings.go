package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, storage.Persistence("get settings", err)
	}
	defer rows.Close()

	data := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, storage.Persistence("scan settings", err)
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, storage.Persistence("get settings", err)
	}

	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}

	return models.MapToSettings(data)
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.Persistence("begin settings transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`))
	if err != nil {
		return storage.Persistence("prepare settings upsert", err)
	}
	defer stmt.Close()

	for key, value := range models.SettingsToMap(settings) {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return storage.Persistence("save setting "+key, err)
		}
	}

	return storage.Persistence("commit settings", tx.Commit())
}
