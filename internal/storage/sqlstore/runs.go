package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

// queries runs against either the database or an open transaction.
type queries struct {
	ext sqlx.ExtContext
}

type servingRunRow struct {
	ID               string `db:"id"`
	ServingArchiveID string `db:"serving_archive_id"`
	ServingName      string `db:"serving_name"`
	CategoryName     string `db:"category_name"`
	ConsumedDay      string `db:"consumed_day"`
	ConsumedTime     string `db:"consumed_time"`
	Calories         int    `db:"calories"`
	UserRemoved      bool   `db:"user_removed"`
	CreatedAt        string `db:"created_at"`
}

func (r servingRunRow) model() (models.ServingRun, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.ServingRun{}, fmt.Errorf("failed to parse created_at for serving run %s: %w", r.ID, err)
	}
	return models.ServingRun{
		ID:               r.ID,
		ServingArchiveID: r.ServingArchiveID,
		ServingName:      r.ServingName,
		CategoryName:     r.CategoryName,
		ConsumedDay:      r.ConsumedDay,
		ConsumedTime:     r.ConsumedTime,
		Calories:         r.Calories,
		UserRemoved:      r.UserRemoved,
		CreatedAt:        createdAt,
	}, nil
}

type dayRunRow struct {
	ConsumedDay string `db:"consumed_day"`
	Calories    int    `db:"calories"`
	Color       string `db:"color"`
	UpdatedAt   string `db:"updated_at"`
}

func (r dayRunRow) model() (models.DayRun, error) {
	updatedAt, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return models.DayRun{}, fmt.Errorf("failed to parse updated_at for day run %s: %w", r.ConsumedDay, err)
	}
	return models.DayRun{
		ConsumedDay: r.ConsumedDay,
		Calories:    r.Calories,
		Color:       r.Color,
		UpdatedAt:   updatedAt,
	}, nil
}

const servingRunColumns = `id, serving_archive_id, serving_name, category_name, consumed_day,
	consumed_time, calories, user_removed, created_at`

func (q *queries) selectRuns(ctx context.Context, query string, args ...interface{}) ([]models.ServingRun, error) {
	var rows []servingRunRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, q.ext.Rebind(query), args...); err != nil {
		return nil, storage.Persistence("query serving runs", err)
	}

	runs := make([]models.ServingRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.model()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (q *queries) FindServingRuns(ctx context.Context, day string, includeRemoved bool) ([]models.ServingRun, error) {
	query := "SELECT " + servingRunColumns + " FROM serving_runs WHERE consumed_day = ?"
	args := []interface{}{day}
	if !includeRemoved {
		query += " AND user_removed = ?"
		args = append(args, false)
	}
	query += " ORDER BY consumed_time ASC, created_at ASC"
	return q.selectRuns(ctx, query, args...)
}

func (q *queries) FindServingRunsByKey(ctx context.Context, key models.RunKey, includeRemoved bool) ([]models.ServingRun, error) {
	query := "SELECT " + servingRunColumns + ` FROM serving_runs
		WHERE serving_archive_id = ? AND consumed_day = ? AND consumed_time = ?`
	args := []interface{}{key.ServingArchiveID, key.ConsumedDay, key.ConsumedTime}
	if !includeRemoved {
		query += " AND user_removed = ?"
		args = append(args, false)
	}
	query += " ORDER BY created_at ASC"
	return q.selectRuns(ctx, query, args...)
}

func (q *queries) GetServingRun(ctx context.Context, id string) (models.ServingRun, error) {
	var row servingRunRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		q.ext.Rebind("SELECT "+servingRunColumns+" FROM serving_runs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ServingRun{}, fmt.Errorf("serving run %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.ServingRun{}, storage.Persistence("get serving run", err)
	}
	return row.model()
}

func (q *queries) CreateServingRun(ctx context.Context, run models.ServingRun) (models.ServingRun, error) {
	if run.Calories < 0 || run.Calories > constants.MaxDayCalories {
		return models.ServingRun{}, fmt.Errorf("calories must be between 0 and %d, got %d", constants.MaxDayCalories, run.Calories)
	}
	if err := run.Key().Validate(); err != nil {
		return models.ServingRun{}, err
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC().Truncate(time.Second)

	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(`
		INSERT INTO serving_runs (`+servingRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.ServingArchiveID, run.ServingName, run.CategoryName, run.ConsumedDay,
		run.ConsumedTime, run.Calories, run.UserRemoved, run.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return models.ServingRun{}, storage.Persistence("create serving run", err)
	}
	return run, nil
}

func (q *queries) MarkServingRunRemoved(ctx context.Context, key models.RunKey) error {
	result, err := q.ext.ExecContext(ctx, q.ext.Rebind(`
		UPDATE serving_runs SET user_removed = ?
		WHERE serving_archive_id = ? AND consumed_day = ? AND consumed_time = ? AND user_removed = ?`),
		true, key.ServingArchiveID, key.ConsumedDay, key.ConsumedTime, false)
	if err != nil {
		return storage.Persistence("mark serving run removed", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storage.Persistence("mark serving run removed", err)
	}
	if rows == 0 {
		return fmt.Errorf("serving run %s: %w", key, storage.ErrNotFound)
	}
	return nil
}

func (q *queries) GetDayRun(ctx context.Context, day string) (models.DayRun, error) {
	var row dayRunRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		q.ext.Rebind("SELECT consumed_day, calories, color, updated_at FROM day_runs WHERE consumed_day = ?"), day)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DayRun{}, fmt.Errorf("day run %s: %w", day, storage.ErrNotFound)
	}
	if err != nil {
		return models.DayRun{}, storage.Persistence("get day run", err)
	}
	return row.model()
}

func (q *queries) ListDayRuns(ctx context.Context) ([]models.DayRun, error) {
	var rows []dayRunRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT consumed_day, calories, color, updated_at FROM day_runs ORDER BY consumed_day ASC"); err != nil {
		return nil, storage.Persistence("list day runs", err)
	}

	runs := make([]models.DayRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.model()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (q *queries) EnsureDayRun(ctx context.Context, day, color string) (models.DayRun, error) {
	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(`
		INSERT INTO day_runs (consumed_day, calories, color, updated_at)
		VALUES (?, 0, ?, ?)
		ON CONFLICT (consumed_day) DO NOTHING`),
		day, color, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return models.DayRun{}, storage.Persistence("ensure day run", err)
	}
	return q.GetDayRun(ctx, day)
}

func (q *queries) SaveDayRun(ctx context.Context, run models.DayRun) error {
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = time.Now()
	}
	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(`
		INSERT INTO day_runs (consumed_day, calories, color, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (consumed_day) DO UPDATE SET
			calories = excluded.calories,
			color = excluded.color,
			updated_at = excluded.updated_at`),
		run.ConsumedDay, run.Calories, run.Color, run.UpdatedAt.UTC().Format(time.RFC3339))
	return storage.Persistence("save day run", err)
}
