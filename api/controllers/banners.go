package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const bannerImageField = "image"

func BannerList(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("banner"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func BannerListActive(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("banner"))
			return
		}

		list, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// BannerCreate accepts JSON with a hosted image URL or a multipart form with
// the image file.
func BannerCreate(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("banner"))
			return
		}

		var input banners.CreateInput
		if isMultipart(r) {
			file, closeFiles, err := singleUpload(r, bannerImageField)
			defer func() { _ = closeFiles() }()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			order, err := formInt(r, "order")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = banners.CreateInput{
				Title:  deref(formValue(r, "title")),
				Link:   deref(formValue(r, "link")),
				Status: enums.VisibilityStatus(deref(formValue(r, "status"))),
				Upload: file,
			}
			if order != nil {
				input.Order = *order
			}
		} else if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		banner, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusCreated, "Banner created", banner)
	}
}

func BannerUpdate(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("banner"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input banners.UpdateInput
		if isMultipart(r) {
			file, closeFiles, err := singleUpload(r, bannerImageField)
			defer func() { _ = closeFiles() }()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			order, err := formInt(r, "order")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = banners.UpdateInput{
				Title:  formValue(r, "title"),
				Link:   formValue(r, "link"),
				Order:  order,
				Upload: file,
			}
			if raw := formValue(r, "status"); raw != nil {
				status := enums.VisibilityStatus(*raw)
				input.Status = &status
			}
		} else if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		banner, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Banner updated", banner)
	}
}

func BannerDelete(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("banner"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Banner deleted", nil)
	}
}

func formInt(r *http.Request, key string) (*int, error) {
	raw := formValue(r, key)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be an integer")
	}
	return &v, nil
}
