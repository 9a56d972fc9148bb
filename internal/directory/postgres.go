package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
)

const queryTimeout = 3 * time.Second

const userColumns = `
	id, first_name, last_name, email, username, password_hash, federated_id,
	avatar_url, bio, role, is_verified, is_active, last_seen_at,
	created_at, updated_at, deleted_at`

// PostgresDirectory is the canonical Directory backed by the users table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	return d.findOne(ctx, `WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	return d.findOne(ctx, `WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, email)
}

func (d *PostgresDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	return d.findOne(ctx, `WHERE username = $1 AND deleted_at IS NULL`, username)
}

func (d *PostgresDirectory) FindByFederatedID(ctx context.Context, federatedID string) (*User, error) {
	return d.findOne(ctx, `WHERE federated_id = $1 AND deleted_at IS NULL`, federatedID)
}

func (d *PostgresDirectory) findOne(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users `+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // absence, not a failure
	}
	if err != nil {
		return nil, wrapDBError("find user", err)
	}
	return u, nil
}

func (d *PostgresDirectory) Create(ctx context.Context, n NewUser) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO users (
			first_name, last_name, email, username, password_hash,
			federated_id, avatar_url, is_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+userColumns,
		n.FirstName,
		n.LastName,
		n.Email,
		nullString(n.Username),
		nullString(n.PasswordHash),
		nullString(n.FederatedID),
		nullString(n.AvatarURL),
		n.IsVerified,
	)

	u, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, &ConflictError{Constraint: pqErr.Constraint}
		}
		return nil, wrapDBError("create user", err)
	}
	return u, nil
}

func (d *PostgresDirectory) Update(ctx context.Context, id string, u Update) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sets := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.Username != nil {
		add("username", nullString(*u.Username))
	}
	if u.PasswordHash != nil {
		add("password_hash", nullString(*u.PasswordHash))
	}
	if u.FederatedID != nil {
		add("federated_id", nullString(*u.FederatedID))
	}
	if u.AvatarURL != nil {
		add("avatar_url", nullString(*u.AvatarURL))
	}
	if u.Bio != nil {
		add("bio", *u.Bio)
	}
	if u.IsVerified != nil {
		add("is_verified", *u.IsVerified)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.LastSeenAt != nil {
		add("last_seen_at", *u.LastSeenAt)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE id = $%d AND deleted_at IS NULL",
		strings.Join(sets, ", "),
		len(args),
	)

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapDBError("update user", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapDBError("update user", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		username     sql.NullString
		passwordHash sql.NullString
		federatedID  sql.NullString
		avatarURL    sql.NullString
		bio          sql.NullString
		lastSeenAt   sql.NullTime
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&username,
		&passwordHash,
		&federatedID,
		&avatarURL,
		&bio,
		&u.Role,
		&u.IsVerified,
		&u.IsActive,
		&lastSeenAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Username = username.String
	u.PasswordHash = passwordHash.String
	u.FederatedID = federatedID.String
	u.AvatarURL = avatarURL.String
	u.Bio = bio.String
	if lastSeenAt.Valid {
		t := lastSeenAt.Time
		u.LastSeenAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func wrapDBError(op string, err error) error {
	return fmt.Errorf("directory: %s: %w: %v", op, auth.ErrDirectoryUnavailable, err)
}
