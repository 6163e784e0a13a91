package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/media"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// multipartMemory bounds how much of a multipart body is buffered in memory;
// the remainder spills to temp files.
const multipartMemory = 32 << 20

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return validators.ParseUUID(chi.URLParam(r, name), name)
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "perPage", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PerPage: perPage}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// uploadedFiles collects every file posted under field. The returned close
// func releases the opened parts and must be called once the files are
// consumed.
func uploadedFiles(r *http.Request, field string) ([]media.File, func() error, error) {
	noop := func() error { return nil }
	if !isMultipart(r) {
		return nil, noop, pkgerrors.New(pkgerrors.CodeValidation, "multipart form required")
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	headers := r.MultipartForm.File[field]
	files := make([]media.File, 0, len(headers))
	var closers []func() error
	closeAll := func() error {
		var err error
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return err
	}
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			_ = closeAll()
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file")
		}
		closers = append(closers, part.Close)
		files = append(files, media.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        part,
		})
	}
	return files, closeAll, nil
}

// singleUpload returns the first file posted under field, or nil when the
// form carries none.
func singleUpload(r *http.Request, field string) (*media.File, func() error, error) {
	files, closeFn, err := uploadedFiles(r, field)
	if err != nil || len(files) == 0 {
		return nil, closeFn, err
	}
	return &files[0], closeFn, nil
}

func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])
	return &v
}
