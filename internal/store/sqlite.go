package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
// Birthdates are stored as YYYY-MM-DD and rebuilt in the reference timezone.
type SQLiteRepo struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string, loc *time.Location) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, loc: loc}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const selectCols = `id, user_id, chat_id, name, birthdate, description, telegram_username,
       reminder_hour, reminder_minute, remind_3_days, remind_1_day, remind_day, created_at`

// Create inserts a new birthday. It fails with ErrDuplicate when the owner
// already tracks the same name.
func (r *SQLiteRepo) Create(ctx context.Context, b *domain.Birthday) error {
	if b == nil {
		return errors.New("nil birthday")
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM birthdays WHERE user_id = ? AND name = ?`,
		b.OwnerID, b.Name,
	).Scan(&exists)
	switch {
	case err == nil:
		return ErrDuplicate
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	created := b.CreatedAt.UTC().Unix()
	if b.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO birthdays (
			user_id, chat_id, name, birthdate, description, telegram_username,
			reminder_hour, reminder_minute, remind_3_days, remind_1_day, remind_day, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.ChatID, b.Name, b.Birthdate.Format(birthdateLayout),
		b.Description, b.Username, b.ReminderHour, b.ReminderMinute,
		boolToInt(b.Remind3Days), boolToInt(b.Remind1Day), boolToInt(b.RemindDay), created,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		b.ID = id
	}
	return nil
}

// GetByOwner returns the birthday a user tracks under the given name.
func (r *SQLiteRepo) GetByOwner(ctx context.Context, ownerID int64, name string) (*domain.Birthday, error) {
	return r.getOne(ctx,
		`SELECT `+selectCols+` FROM birthdays WHERE user_id = ? AND name = ?`,
		ownerID, name,
	)
}

// GetByChat returns the birthday tracked in a chat under the given name.
// Job actions use it to read current settings at fire time.
func (r *SQLiteRepo) GetByChat(ctx context.Context, chatID int64, name string) (*domain.Birthday, error) {
	return r.getOne(ctx,
		`SELECT `+selectCols+` FROM birthdays WHERE chat_id = ? AND name = ?`,
		chatID, name,
	)
}

func (r *SQLiteRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Birthday, error) {
	var rw row
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rw.id, &rw.userID, &rw.chatID, &rw.name, &rw.birthdate, &rw.description,
		&rw.username, &rw.hour, &rw.minute, &rw.r3d, &rw.r1d, &rw.rd, &rw.createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rw.toDomain(r.loc)
}

// ListByOwner returns all birthdays a user tracks, ordered by calendar day.
func (r *SQLiteRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Birthday, error) {
	return r.list(ctx,
		`SELECT `+selectCols+` FROM birthdays WHERE user_id = ? ORDER BY substr(birthdate, 6)`,
		ownerID,
	)
}

// ListAll returns every stored birthday; used for startup rehydration.
func (r *SQLiteRepo) ListAll(ctx context.Context) ([]domain.Birthday, error) {
	return r.list(ctx, `SELECT `+selectCols+` FROM birthdays ORDER BY id`)
}

func (r *SQLiteRepo) list(ctx context.Context, query string, args ...any) ([]domain.Birthday, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Birthday
	for rows.Next() {
		var rw row
		if err := rows.Scan(
			&rw.id, &rw.userID, &rw.chatID, &rw.name, &rw.birthdate, &rw.description,
			&rw.username, &rw.hour, &rw.minute, &rw.r3d, &rw.r1d, &rw.rd, &rw.createdAt,
		); err != nil {
			return nil, err
		}
		b, err := rw.toDomain(r.loc)
		if err != nil {
			return nil, err
		}
		res = append(res, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateReminderTime changes the reminder time-of-day for one birthday.
func (r *SQLiteRepo) UpdateReminderTime(ctx context.Context, ownerID int64, name string, hour, minute int) error {
	return r.update(ctx,
		`UPDATE birthdays SET reminder_hour = ?, reminder_minute = ? WHERE user_id = ? AND name = ?`,
		hour, minute, ownerID, name,
	)
}

// UpdateFlags changes the three reminder toggles for one birthday.
func (r *SQLiteRepo) UpdateFlags(ctx context.Context, ownerID int64, name string, r3d, r1d, rd bool) error {
	return r.update(ctx,
		`UPDATE birthdays SET remind_3_days = ?, remind_1_day = ?, remind_day = ? WHERE user_id = ? AND name = ?`,
		boolToInt(r3d), boolToInt(r1d), boolToInt(rd), ownerID, name,
	)
}

// UpdateUsername changes (or clears) the telegram handle for one birthday.
func (r *SQLiteRepo) UpdateUsername(ctx context.Context, ownerID int64, name, username string) error {
	return r.update(ctx,
		`UPDATE birthdays SET telegram_username = ? WHERE user_id = ? AND name = ?`,
		username, ownerID, name,
	)
}

// Delete removes one birthday row. ErrNotFound when nothing matched.
func (r *SQLiteRepo) Delete(ctx context.Context, ownerID int64, name string) error {
	return r.update(ctx,
		`DELETE FROM birthdays WHERE user_id = ? AND name = ?`,
		ownerID, name,
	)
}

func (r *SQLiteRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
