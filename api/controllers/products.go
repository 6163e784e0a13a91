package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// filterParser turns query parameters into list filters for one browse
// endpoint.
type filterParser func(r *http.Request) (products.ListFilters, error)

// productBrowse serves every paginated product listing; only the filter
// parsing differs between endpoints.
func productBrowse(svc products.Service, logg *logger.Logger, parse filterParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		filters, err := parse(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), products.ListInput{Filters: filters, Pagination: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "items fetched successfully", page)
	}
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return productBrowse(svc, logg, func(*http.Request) (products.ListFilters, error) {
		return products.ListFilters{}, nil
	})
}

// ProductsByCategory filters by catId, subCatId or thirdSubCatId.
func ProductsByCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return productBrowse(svc, logg, func(r *http.Request) (products.ListFilters, error) {
		var filters products.ListFilters
		if err := parseCategoryIDs(r, &filters); err != nil {
			return filters, err
		}
		if filters.CatID == nil && filters.SubCatID == nil && filters.ThirdSubCatID == nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "catId, subCatId or thirdSubCatId is required")
		}
		return filters, nil
	})
}

func ProductsByCategoryName(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return productBrowse(svc, logg, func(r *http.Request) (products.ListFilters, error) {
		q := r.URL.Query()
		filters := products.ListFilters{
			CatName:         strings.TrimSpace(q.Get("catName")),
			SubCatName:      strings.TrimSpace(q.Get("subCatName")),
			ThirdSubCatName: strings.TrimSpace(q.Get("thirdSubCatName")),
		}
		if filters.CatName == "" && filters.SubCatName == "" && filters.ThirdSubCatName == "" {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "catName, subCatName or thirdSubCatName is required")
		}
		return filters, nil
	})
}

// ProductsByPrice applies minPrice/maxPrice, optionally scoped to a category.
func ProductsByPrice(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return productBrowse(svc, logg, func(r *http.Request) (products.ListFilters, error) {
		var filters products.ListFilters
		if err := parseCategoryIDs(r, &filters); err != nil {
			return filters, err
		}
		minPrice, err := validators.ParseQueryDecimal(r, "minPrice")
		if err != nil {
			return filters, err
		}
		maxPrice, err := validators.ParseQueryDecimal(r, "maxPrice")
		if err != nil {
			return filters, err
		}
		filters.MinPrice = minPrice
		filters.MaxPrice = maxPrice
		return filters, nil
	})
}

// ProductsByRating returns products rated at least the given rating.
func ProductsByRating(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return productBrowse(svc, logg, func(r *http.Request) (products.ListFilters, error) {
		var filters products.ListFilters
		if err := parseCategoryIDs(r, &filters); err != nil {
			return filters, err
		}
		rating, err := validators.ParseQueryFloat(r, "rating")
		if err != nil {
			return filters, err
		}
		if rating == nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "rating is required")
		}
		if *rating < 0 || *rating > 5 {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
		}
		filters.MinRating = rating
		return filters, nil
	})
}

func parseCategoryIDs(r *http.Request, filters *products.ListFilters) error {
	for key, dest := range map[string]**uuid.UUID{
		"catId":         &filters.CatID,
		"subCatId":      &filters.SubCatID,
		"thirdSubCatId": &filters.ThirdSubCatID,
	} {
		id, err := validators.ParseQueryUUID(r, key)
		if err != nil {
			return err
		}
		*dest = id
	}
	return nil
}

func ProductsFeatured(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		list, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "items fetched successfully", list)
	}
}

// ProductSearch looks products up by the q query parameter.
func ProductSearch(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Search(r.Context(), r.URL.Query().Get("q"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "items fetched successfully", page)
	}
}

func ProductCount(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		count, err := svc.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"productCount": count})
	}
}

type decrementStockRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

// ProductDecrementStock lowers stock after a purchase.
func ProductDecrementStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		var body decrementStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.DecrementStock(r.Context(), body.ProductID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Product updated successfully", product)
	}
}

func ProductUploadImages(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		files, closeFiles, err := uploadedFiles(r, "images")
		defer func() { _ = closeFiles() }()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(files) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "No files uploaded"))
			return
		}

		urls, err := svc.UploadImages(r.Context(), files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Images uploaded successfully", map[string]any{"images": urls})
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		var body products.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusCreated, "Product created successfully", product)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Product fetched", product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body products.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Product updated successfully", product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
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

		responses.WriteMessage(w, http.StatusOK, "Product deleted", nil)
	}
}
