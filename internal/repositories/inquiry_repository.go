package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"trusthaven/internal/models"
)

type InquiryRepository struct {
	DB *sql.DB
}

const inquiryColumns = `id, listing_id, sender_id, recipient_id, name, email, country_code, phone, interest, message, created_at`

func scanInquiry(row rowScanner) (models.Inquiry, error) {
	var inq models.Inquiry
	var listingID, senderID, recipientID, phone sql.NullString
	err := row.Scan(&inq.ID, &listingID, &senderID, &recipientID, &inq.Name, &inq.Email,
		&inq.CountryCode, &phone, &inq.Interest, &inq.Message, &inq.CreatedAt)
	if err != nil {
		return models.Inquiry{}, err
	}
	inq.ListingID = optionalString(listingID)
	inq.SenderID = optionalString(senderID)
	inq.RecipientID = optionalString(recipientID)
	inq.Phone = phone.String
	return inq, nil
}

func optionalString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func deref(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func (r *InquiryRepository) CreateInquiry(ctx context.Context, inq models.Inquiry) (models.Inquiry, error) {
	query := `
        INSERT INTO inquiries (` + inquiryColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		inq.ID, deref(inq.ListingID), deref(inq.SenderID), deref(inq.RecipientID), inq.Name, inq.Email,
		inq.CountryCode, nullString(inq.Phone), inq.Interest, inq.Message, inq.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1452 {
			return models.Inquiry{}, models.ErrListingNotFound
		}
		return models.Inquiry{}, err
	}
	return inq, nil
}

func (r *InquiryRepository) list(ctx context.Context, where string, args ...any) ([]models.Inquiry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := []models.Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		inquiries = append(inquiries, inq)
	}
	return inquiries, rows.Err()
}

func (r *InquiryRepository) BySender(ctx context.Context, userID string) ([]models.Inquiry, error) {
	return r.list(ctx, "sender_id = ?", userID)
}

func (r *InquiryRepository) ByRecipient(ctx context.Context, userID string) ([]models.Inquiry, error) {
	return r.list(ctx, "recipient_id = ?", userID)
}

// ContactMessages lists messages sent through the public contact form.
func (r *InquiryRepository) ContactMessages(ctx context.Context) ([]models.Inquiry, error) {
	return r.list(ctx, "listing_id IS NULL")
}

func (r *InquiryRepository) CountBySender(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM inquiries WHERE sender_id = ?`, userID).Scan(&n)
	return n, err
}
