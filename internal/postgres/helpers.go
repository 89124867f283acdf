package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isPgError reports whether err is a Postgres error with the given SQLSTATE code.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// parsePrice converts a numeric column fetched as text into a decimal.
// Prices cross the pgx boundary as text because the text form of numeric
// is exact; float64 would not be.
func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
