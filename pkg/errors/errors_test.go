package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRendering(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
		CodeConflict:          {HTTPStatus: http.StatusBadRequest, PublicMessage: "conflict detected", DetailsAllowed: true},
		CodeSignatureMismatch: {HTTPStatus: http.StatusBadRequest, PublicMessage: "signature verification failed"},
		CodeUnauthorized:      {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
		CodeForbidden:         {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
		CodeNotFound:          {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
		CodeRateLimit:         {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded"},
		CodeInternal:          {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:        {HTTPStatus: http.StatusInternalServerError, PublicMessage: "dependency unavailable", Retryable: true},
	}
	for code, want := range cases {
		assert.Equal(t, want, MetadataFor(code), code)
	}
	assert.Equal(t, cases[CodeInternal], MetadataFor("SOMETHING_UNKNOWN"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load product")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: load product: db down", err.Error())

	outer := fmt.Errorf("outer: %w", err)
	require.NotNil(t, As(outer))
	assert.Equal(t, CodeDependency, As(outer).Code())
	assert.True(t, IsCode(outer, CodeDependency))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))

	assert.Equal(t, "NOT_FOUND: missing", Wrap(CodeNotFound, nil, "missing").Error())
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeValidation, "file must be at most %d bytes", 1024)
	assert.Equal(t, "file must be at most 1024 bytes", err.Message())
	assert.Equal(t, CodeValidation, err.Code())
}

func TestConflictMessageNamesField(t *testing.T) {
	err := Conflict("email", nil)
	assert.Equal(t, "email already exists", err.Message())
	assert.Equal(t, map[string]any{"field": "email"}, err.Details())
	assert.Equal(t, "value already exists", Conflict("", nil).Message())
}

func TestNilErrorAccessorsAreSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Nil(t, err.Details())
	assert.Empty(t, err.Error())
	assert.Nil(t, err.WithDetails("x"))
}

func TestDumpIncludesChainAndPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", Detail: "Key (email)=(a@b.c) already exists."}
	err := Wrap(CodeDependency, fmt.Errorf("insert user: %w", pgErr), "create user")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.Len(t, d.Chain, 3)
	require.NotNil(t, d.DB)
	assert.Equal(t, "23505", d.DB.Code)
	assert.Equal(t, "users_email_key", d.DB.Constraint)

	assert.Nil(t, Dump(stdErrors.New("plain")).DB)
}
