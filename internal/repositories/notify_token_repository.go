package repositories

import (
	"context"
	"database/sql"
)

type NotifyTokenRepository struct {
	DB *sql.DB
}

func (r *NotifyTokenRepository) InsertToken(ctx context.Context, userID, token string) error {
	stmt := `
        INSERT INTO notify_tokens (user_id, token)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE user_id = VALUES(user_id)`
	_, err := r.DB.ExecContext(ctx, stmt, userID, token)
	return err
}

// DeleteToken removes token only when it belongs to userID.
func (r *NotifyTokenRepository) DeleteToken(ctx context.Context, userID, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM notify_tokens WHERE token = ? AND user_id = ?`, token, userID)
	return err
}

func (r *NotifyTokenRepository) GetTokensByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM notify_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
