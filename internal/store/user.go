package store

import (
	"context"
	"errors"
	"fmt"

	"edulearn/internal/database"
	"edulearn/internal/model"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, name, role, openrouter_api_key, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.OpenRouterAPIKey,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func GetUserByID(ctx context.Context, db database.DB, userID int) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	))
	if err != nil {
		return nil, wrap("GetUserByID", err)
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, wrap("GetUserByEmail", err)
	}
	return u, nil
}

func ListUsers(ctx context.Context, db database.DB) ([]model.User, error) {
	rows, err := db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, wrap("ListUsers", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("ListUsers", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListUsers", err)
	}
	return users, nil
}

// CreateUser inserts u and fills its generated columns. A taken email yields
// ErrDuplicateEmail.
func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	if u.Role == "" {
		u.Role = "student"
	}
	row := db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, role, is_admin)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Role,
		u.IsAdmin,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("CreateUser: %w", ErrDuplicateEmail)
		}
		return nil, wrap("CreateUser", err)
	}
	return u, nil
}

// UpsertOAuthUser returns the user registered under email, creating a
// password-less account on first sign-in.
func UpsertOAuthUser(ctx context.Context, db database.DB, email, name string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`INSERT INTO users (email, name)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET updated_at = now()
		 RETURNING `+userColumns,
		email,
		name,
	))
	if err != nil {
		return nil, wrap("UpsertOAuthUser", err)
	}
	return u, nil
}

// UpdateUserAPIKey stores key, or clears it when key is nil.
func UpdateUserAPIKey(ctx context.Context, db database.DB, userID int, key *string) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET openrouter_api_key = $1, updated_at = now() WHERE id = $2`,
		key,
		userID,
	)
	if err != nil {
		return wrap("UpdateUserAPIKey", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdateUserAPIKey: %w", ErrNotFound)
	}
	return nil
}

func GetUserAPIKey(ctx context.Context, db database.DB, userID int) (*string, error) {
	var key *string
	if err := db.QueryRow(ctx,
		`SELECT openrouter_api_key FROM users WHERE id = $1`,
		userID,
	).Scan(&key); err != nil {
		return nil, wrap("GetUserAPIKey", err)
	}
	return key, nil
}

func SetUserAdmin(ctx context.Context, db database.DB, userID int, isAdmin bool) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET is_admin = $1, role = CASE WHEN $1 THEN 'admin' ELSE 'student' END, updated_at = now()
		 WHERE id = $2`,
		isAdmin,
		userID,
	)
	if err != nil {
		return wrap("SetUserAdmin", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SetUserAdmin: %w", ErrNotFound)
	}
	return nil
}

// IsAdminEmail reports whether email belongs to an admin. Unknown emails are
// not admins.
func IsAdminEmail(ctx context.Context, db database.DB, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var isAdmin bool
	err := db.QueryRow(ctx, `SELECT is_admin FROM users WHERE email = $1`, email).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrap("IsAdminEmail", err)
	}
	return isAdmin, nil
}
