// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/albrightlabs/auth0bridge/pkg/identity"
)

// SQLiteStore implements identity.Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ identity.Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) a SQLite user store at the given
// path and applies pending migrations. Use ":memory:" for an ephemeral
// database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent callbacks.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// userColumns is the SELECT column list shared by all lookups.
const userColumns = `id, external_id, email, username, first_name, last_name, password,
		access_token, refresh_token, id_token, avatar_url, activated_at,
		primary_group_id, created_ip, last_ip, created_at, updated_at`

// GetByExternalID looks a user up by linked Auth0 subject.
func (s *SQLiteStore) GetByExternalID(ctx context.Context, externalID string) (*identity.User, error) {
	if externalID == "" {
		return nil, identity.ErrUserNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	return scanUser(row)
}

// GetByEmail looks a user up by email, case-insensitively.
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, identity.ErrUserNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
	return scanUser(row)
}

// GetByUsername looks a user up by exact username.
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// Create persists a new user and fills in its ID. Unique index violations
// surface as identity.ErrDuplicate.
func (s *SQLiteStore) Create(ctx context.Context, user *identity.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			external_id, email, username, first_name, last_name, password,
			access_token, refresh_token, id_token, avatar_url, activated_at,
			primary_group_id, created_ip, last_ip, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ExternalID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Password,
		user.AccessToken,
		user.RefreshToken,
		user.IDToken,
		user.AvatarURL,
		nullableTime(user.ActivatedAt),
		user.PrimaryGroupID,
		user.CreatedIP,
		user.LastIP,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrDuplicate
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}
	return nil
}

// Update persists changes to an existing user.
func (s *SQLiteStore) Update(ctx context.Context, user *identity.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			external_id = ?, email = ?, username = ?, first_name = ?,
			last_name = ?, password = ?, access_token = ?, refresh_token = ?,
			id_token = ?, avatar_url = ?, activated_at = ?,
			primary_group_id = ?, created_ip = ?, last_ip = ?, updated_at = ?
		WHERE id = ?`,
		user.ExternalID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Password,
		user.AccessToken,
		user.RefreshToken,
		user.IDToken,
		user.AvatarURL,
		nullableTime(user.ActivatedAt),
		user.PrimaryGroupID,
		user.CreatedIP,
		user.LastIP,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrDuplicate
		}
		return fmt.Errorf("updating user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// GroupExists reports whether a user group exists.
func (s *SQLiteStore) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_groups WHERE id = ?`, groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up group: %w", err)
	}
	return true, nil
}

// AttachToGroup adds a user to a group's membership collection. Attaching
// twice is a no-op.
func (s *SQLiteStore) AttachToGroup(ctx context.Context, userID, groupID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_group_memberships (user_id, group_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, group_id) DO NOTHING`,
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("attaching user to group: %w", err)
	}
	return nil
}

// CreateGroup adds a user group and returns its ID.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_groups (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("inserting group: %w", err)
	}
	return res.LastInsertId()
}

// IsMember reports whether a user belongs to a group.
func (s *SQLiteStore) IsMember(ctx context.Context, userID, groupID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_group_memberships WHERE user_id = ? AND group_id = ?`,
		userID, groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up membership: %w", err)
	}
	return true, nil
}

func scanUser(row *sql.Row) (*identity.User, error) {
	var u identity.User
	var activatedAt sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Password,
		&u.AccessToken,
		&u.RefreshToken,
		&u.IDToken,
		&u.AvatarURL,
		&activatedAt,
		&u.PrimaryGroupID,
		&u.CreatedIP,
		&u.LastIP,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if activatedAt.Valid {
		u.ActivatedAt = &activatedAt.Time
	}
	return &u, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}
