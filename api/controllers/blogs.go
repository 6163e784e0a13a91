package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/blogs"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// blogImageField is the multipart field carrying the cover image.
const blogImageField = "catImg"

func BlogList(svc blogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("blog"))
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

// BlogGet accepts either the blog id or its slug.
func BlogGet(svc blogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("blog"))
			return
		}

		blog, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, blog)
	}
}

// BlogCreate takes a JSON body, or a multipart form whose catImg file is
// uploaded as the cover.
func BlogCreate(svc blogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("blog"))
			return
		}

		var input blogs.CreateInput
		if isMultipart(r) {
			file, closeFiles, err := singleUpload(r, blogImageField)
			defer func() { _ = closeFiles() }()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = blogs.CreateInput{
				Title:       deref(formValue(r, "title")),
				Description: deref(formValue(r, "description")),
				Content:     deref(formValue(r, "content")),
				Category:    deref(formValue(r, "category")),
				Author:      deref(formValue(r, "author")),
				Image:       file,
			}
		} else if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		blog, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusCreated, "Blog created", blog)
	}
}

func BlogUpdate(svc blogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("blog"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input blogs.UpdateInput
		if isMultipart(r) {
			file, closeFiles, err := singleUpload(r, blogImageField)
			defer func() { _ = closeFiles() }()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = blogs.UpdateInput{
				Title:       formValue(r, "title"),
				Description: formValue(r, "description"),
				Content:     formValue(r, "content"),
				Category:    formValue(r, "category"),
				Image:       file,
			}
		} else if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		blog, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Blog updated", blog)
	}
}

func BlogDelete(svc blogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("blog"))
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

		responses.WriteMessage(w, http.StatusOK, "Blog deleted", nil)
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
