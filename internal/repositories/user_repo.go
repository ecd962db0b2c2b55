package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"trusthaven/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, name, username, email, phone, avatar, is_verified, role, provider,
        google_subject, password_hash, status, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.UserProfile, error) {
	var user models.UserProfile
	var email, phone, avatar, subject, passHash sql.NullString
	var updatedAt, lastLogin sql.NullTime
	err := row.Scan(
		&user.ID, &user.Name, &user.Username, &email, &phone, &avatar, &user.IsVerified,
		&user.Role, &user.Provider, &subject, &passHash, &user.Status,
		&user.CreatedAt, &updatedAt, &lastLogin,
	)
	if err != nil {
		return models.UserProfile{}, err
	}
	user.Email = email.String
	user.Phone = phone.String
	user.Avatar = avatar.String
	user.GoogleSubject = subject.String
	user.PasswordHash = passHash.String
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// duplicateUserError maps a unique key violation on users to a domain error.
func duplicateUserError(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != 1062 {
		return err
	}
	switch {
	case strings.Contains(mysqlErr.Message, "email"):
		return models.ErrDuplicateEmail
	case strings.Contains(mysqlErr.Message, "phone"):
		return models.ErrDuplicatePhone
	}
	return models.ErrConflict
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error) {
	query := `
        INSERT INTO users (id, name, username, email, phone, avatar, is_verified, role, provider,
            google_subject, password_hash, status, created_at, last_login_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	user.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, query,
		user.ID, user.Name, user.Username, nullString(user.Email), nullString(user.Phone),
		nullString(user.Avatar), user.IsVerified, user.Role, user.Provider,
		nullString(user.GoogleSubject), nullString(user.PasswordHash), user.Status,
		user.CreatedAt, user.LastLoginAt,
	)
	if err != nil {
		return models.UserProfile{}, duplicateUserError(err)
	}
	return user, nil
}

func (r *UserRepository) getUserBy(ctx context.Context, column string, value any) (models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.UserProfile, error) {
	return r.getUserBy(ctx, "id", id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	return r.getUserBy(ctx, "email", strings.ToLower(email))
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (models.UserProfile, error) {
	return r.getUserBy(ctx, "phone", phone)
}

func (r *UserRepository) GetUserByGoogleSubject(ctx context.Context, subject string) (models.UserProfile, error) {
	return r.getUserBy(ctx, "google_subject", subject)
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error) {
	query := `
        UPDATE users
        SET name = ?, username = ?, email = ?, phone = ?, avatar = ?, is_verified = ?, role = ?,
            google_subject = ?, status = ?, updated_at = ?, last_login_at = ?
        WHERE id = ?
    `
	updatedAt := time.Now().UTC()
	user.UpdatedAt = &updatedAt
	result, err := r.DB.ExecContext(ctx, query,
		user.Name, user.Username, nullString(user.Email), nullString(user.Phone), nullString(user.Avatar),
		user.IsVerified, user.Role, nullString(user.GoogleSubject), user.Status,
		user.UpdatedAt, user.LastLoginAt, user.ID,
	)
	if err != nil {
		return models.UserProfile{}, duplicateUserError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.UserProfile{}, err
	}
	if rowsAffected == 0 {
		return models.UserProfile{}, models.ErrUserNotFound
	}
	return r.GetUserByID(ctx, user.ID)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role models.Role) error {
	return r.updateColumn(ctx, "role", string(role), id)
}

func (r *UserRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.updateColumn(ctx, "status", status, id)
}

func (r *UserRepository) updateColumn(ctx context.Context, column, value, id string) error {
	query := `UPDATE users SET ` + column + ` = ?, updated_at = ? WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ListUsers returns users newest first; an empty role means every role.
func (r *UserRepository) ListUsers(ctx context.Context, role models.Role) ([]models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserProfile{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// ListingIDs returns the ids of listings the user owns.
func (r *UserRepository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, `SELECT id FROM listings WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// SavedListingIDs returns the ids of listings the user has saved.
func (r *UserRepository) SavedListingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, `SELECT listing_id FROM saved_listings WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *UserRepository) ids(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) CreateSession(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (refresh_token, user_id, role, expires_at) VALUES (?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query, session.RefreshToken, session.UserID, session.Role, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	query := `SELECT refresh_token, user_id, role, expires_at FROM sessions WHERE refresh_token = ?`

	var session models.Session
	err := r.DB.QueryRowContext(ctx, query, refreshToken).Scan(
		&session.RefreshToken, &session.UserID, &session.Role, &session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = ?`, refreshToken)
	return err
}

func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions removes sessions that expired before now and reports how many went.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
