package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, body.Error)
	return body
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"error":false,"data":{"hello":"world"}}`, rec.Body.String())
}

func TestWriteMessageKeepsNullData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMessage(rec, http.StatusCreated, "created", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"error":false,"message":"created","data":null}`, rec.Body.String())
}

func TestWriteErrorClientCodesKeepMessage(t *testing.T) {
	cases := []struct {
		err     *pkgerrors.Error
		status  int
		details bool
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "demo"}), http.StatusBadRequest, true},
		{pkgerrors.New(pkgerrors.CodeSignatureMismatch, "invalid signature, payment verification failed"), http.StatusBadRequest, false},
		{pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails("hidden"), http.StatusNotFound, false},
		{pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts"), http.StatusTooManyRequests, false},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, tc.err)

		assert.Equal(t, tc.status, rec.Code, tc.err.Code())
		body := decodeError(t, rec)
		assert.Equal(t, string(tc.err.Code()), body.Code)
		assert.Equal(t, tc.err.Message(), body.Message)
		assert.Equal(t, tc.details, body.Details != nil, tc.err.Code())
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	EnableDebugDetails(false)
	for _, err := range []error{
		errors.New("pq: connection refused"),
		pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "charge card"),
		nil,
	} {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, err)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Contains(t, []string{"internal server error", "dependency unavailable"}, body.Message)
		assert.Nil(t, body.Details)
	}
}

func TestWriteErrorDebugDetailsIncludeChain(t *testing.T) {
	EnableDebugDetails(true)
	t.Cleanup(func() { EnableDebugDetails(false) })

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("gateway timeout"), "create payment order"))

	var body struct {
		Details struct {
			Chain []string `json:"chain"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Details.Chain, 2)
}

func TestWriteJSONFallsBackOnEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), decodeError(t, rec).Code)
}
