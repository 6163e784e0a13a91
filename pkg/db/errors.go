package db

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

var (
	pgKeyDetail      = regexp.MustCompile(`Key \(([^)]+)\)=`)
	sqliteUniqueText = regexp.MustCompile(`UNIQUE constraint failed: ([A-Za-z0-9_.,\s]+)`)
)

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres (pgx or lib/pq) or sqlite.
func IsUniqueViolation(err error) bool {
	_, ok := UniqueViolationField(err)
	return ok
}

// UniqueViolationField returns the offending column, converted to the JSON
// field name clients send (slug, email, orderId). The boolean is false when
// err is not a unique violation.
func UniqueViolationField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != pgUniqueViolation {
			return "", false
		}
		return fieldFromPostgres(pgxErr.Detail, pgxErr.ColumnName), true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolation {
			return "", false
		}
		return fieldFromPostgres(pqErr.Detail, pqErr.Column), true
	}

	msg := err.Error()
	if m := sqliteUniqueText.FindStringSubmatch(msg); m != nil {
		// "table.col" or "table.a, table.b"; report the first column
		first := strings.TrimSpace(strings.Split(m[1], ",")[0])
		if idx := strings.LastIndex(first, "."); idx >= 0 {
			first = first[idx+1:]
		}
		return lowerCamel(first), true
	}
	if strings.Contains(msg, "duplicate key value") {
		return fieldFromPostgres(msg, ""), true
	}
	return "", false
}

func fieldFromPostgres(detail, column string) string {
	if m := pgKeyDetail.FindStringSubmatch(detail); m != nil {
		first := strings.TrimSpace(strings.Split(m[1], ",")[0])
		return lowerCamel(strings.Trim(first, `"`))
	}
	return lowerCamel(column)
}

func lowerCamel(column string) string {
	parts := strings.Split(strings.ToLower(column), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 || b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
