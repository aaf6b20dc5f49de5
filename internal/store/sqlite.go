package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements all repositories using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	Users *SQLiteUserRepo
	Files *SQLiteFileRepo
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:    db,
		Users: &SQLiteUserRepo{db: db},
		Files: &SQLiteFileRepo{db: db},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	migration := `
	-- Sender identities
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Media file index
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY,
		size INTEGER NOT NULL DEFAULT 0,
		local_path TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'pending',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_files_state ON files(state);
	`

	_, err := db.Exec(migration)
	return err
}

// SQLiteUserRepo implements UserRepository.
type SQLiteUserRepo struct {
	db *sql.DB
}

// Upsert stores or replaces a user identity.
func (r *SQLiteUserRepo) Upsert(ctx context.Context, user *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, username, avatar_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		user.ID, user.FirstName, user.LastName, user.Username, user.AvatarURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID returns the user with the given id, or ErrNotFound.
func (r *SQLiteUserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, username, avatar_url, updated_at
		FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username, &user.AvatarURL, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// All returns every stored identity; used to warm the in-memory cache at
// startup.
func (r *SQLiteUserRepo) All(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, username, avatar_url, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.AvatarURL, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the number of stored identities.
func (r *SQLiteUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// SQLiteFileRepo implements FileRepository.
type SQLiteFileRepo struct {
	db *sql.DB
}

// Upsert stores or replaces a media index entry.
func (r *SQLiteFileRepo) Upsert(ctx context.Context, file *File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, size, local_path, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			size = excluded.size,
			local_path = excluded.local_path,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		file.ID, file.Size, file.LocalPath, file.State, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}
	return nil
}

// GetByID returns the media index entry with the given id, or ErrNotFound.
func (r *SQLiteFileRepo) GetByID(ctx context.Context, id int32) (*File, error) {
	file := &File{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, size, local_path, state, updated_at
		FROM files WHERE id = ?`, id).
		Scan(&file.ID, &file.Size, &file.LocalPath, &file.State, &file.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// Count returns the number of indexed files.
func (r *SQLiteFileRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}
