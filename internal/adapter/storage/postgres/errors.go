package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"escrow-backend/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// translateError normalizes unique-constraint violations into the single
// ports.ErrDuplicateEntry signal the services' race-resolution logic depends
// on. Every other error is wrapped with the operation name.
func translateError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%s (%s): %w", op, pgErr.ConstraintName, ports.ErrDuplicateEntry)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty maps empty strings to SQL NULL so partial unique indexes on
// optional keys behave.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
