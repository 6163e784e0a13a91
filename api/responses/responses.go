// Package responses writes the JSON envelopes every endpoint returns.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var debugDetails atomic.Bool

// EnableDebugDetails exposes the error chain of internal errors in the
// response body. Never enable in production.
func EnableDebugDetails(on bool) {
	debugDetails.Store(on)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteMessage(w, http.StatusOK, "", data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	WriteMessage(w, status, "", data)
}

// WriteMessage writes a success envelope carrying a human readable message.
func WriteMessage(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, types.SuccessEnvelope{Success: true, Message: message, Data: data})
}

// WriteError renders err as an error envelope. Client errors keep their own
// message; server errors only ever show the public message for their code.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	serverSide := meta.HTTPStatus >= http.StatusInternalServerError

	envelope := types.ErrorEnvelope{
		Error:   true,
		Message: meta.PublicMessage,
		Code:    string(typed.Code()),
	}
	if msg := typed.Message(); !serverSide && msg != "" {
		envelope.Message = msg
	}
	if meta.DetailsAllowed {
		envelope.Details = typed.Details()
	}

	dump := pkgerrors.Dump(err)
	if serverSide && debugDetails.Load() {
		envelope.Details = map[string]any{"chain": dump.Chain}
	}
	if logg != nil {
		logError(ctx, logg, err, dump, meta.HTTPStatus)
	}

	WriteJSON(w, meta.HTTPStatus, envelope)
}

func logError(ctx context.Context, logg *logger.Logger, err error, dump pkgerrors.ErrorDump, status int) {
	fields := map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
		"http_status": status,
	}
	if db := dump.DB; db != nil {
		fields["pg_code"] = db.Code
		fields["pg_constraint"] = db.Constraint
		fields["pg_table"] = db.Table
		fields["pg_column"] = db.Column
		fields["pg_detail"] = db.Detail
		fields["pg_message"] = db.Message
	}
	ctx = logg.WithFields(ctx, fields)

	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.error")
}

// WriteJSON writes payload as-is. Prefer the envelope writers; this is for
// responses whose status does not follow from an error code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":true,"message":"internal server error","code":"INTERNAL_ERROR"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
