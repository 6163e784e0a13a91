package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func fieldError(field, msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
}

// optionalQuery parses key with parse, returning nil when it is absent or
// blank.
func optionalQuery[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func numeric[T any](key string, parse func(string) (T, error)) func(string) (T, error) {
	return func(raw string) (T, error) {
		v, err := parse(raw)
		if err != nil {
			return v, fieldError(key, "query parameter must be numeric")
		}
		return v, nil
	}
}

// ParseQueryInt reads an integer bounded by [min, max], defaulting when absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	v, err := optionalQuery(r, key, numeric(key, strconv.Atoi))
	switch {
	case err != nil:
		return 0, err
	case v == nil:
		return defaultVal, nil
	case *v < min || *v > max:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return *v, nil
}

// ParseQueryDecimal is used for money filters such as minPrice.
func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	return optionalQuery(r, key, numeric(key, decimal.NewFromString))
}

func ParseQueryFloat(r *http.Request, key string) (*float64, error) {
	return optionalQuery(r, key, numeric(key, func(raw string) (float64, error) {
		return strconv.ParseFloat(raw, 64)
	}))
}

func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	return optionalQuery(r, key, func(raw string) (uuid.UUID, error) {
		return ParseUUID(raw, key)
	})
}

// ParseUUID names the offending field when raw is not an identifier.
func ParseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fieldError(field, "invalid "+field)
	}
	return id, nil
}
