package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aluiziolira/go-flashsale/models"
)

// EmailStore keeps captured email addresses.
type EmailStore struct {
	db *sqlx.DB
}

// NewEmailStore wraps an open database handle.
func NewEmailStore(db *sqlx.DB) *EmailStore {
	return &EmailStore{db: db}
}

// SaveEmail stores the lower-cased address. It reports false when the address
// was already present.
func (s *EmailStore) SaveEmail(ctx context.Context, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO emails (email) VALUES ($1) ON CONFLICT (email) DO NOTHING",
		strings.ToLower(email),
	)
	if err != nil {
		return false, fmt.Errorf("insert email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("email rows affected: %w", err)
	}
	return n > 0, nil
}

// ListEmails returns every address, newest first.
func (s *EmailStore) ListEmails(ctx context.Context) ([]models.Email, error) {
	emails := []models.Email{}
	if err := s.db.SelectContext(ctx, &emails, "SELECT email, created_at FROM emails ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("select emails: %w", err)
	}
	return emails, nil
}
