package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopfront/storefront-backend/api/responses"
	"github.com/shopfront/storefront-backend/api/validators"
	productsvc "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/pagination"
)

const (
	maxPage      = 100000
	maxFilterLen = 100
)

// ListProducts returns one catalog page. The unpaginated total is also sent as X-Total-Count.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "_page", 1, 1, maxPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "_limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		filter := productsvc.ListFilter{
			Category:    validators.QueryText(r, "category", maxFilterLen),
			Subcategory: validators.QueryText(r, "subcategory", maxFilterLen),
		}
		if raw := strings.TrimSpace(q.Get("gender")); raw != "" {
			gender, err := enums.ParseGender(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender"))
				return
			}
			filter.Gender = gender
		}

		result, err := svc.List(r.Context(), productsvc.ListInput{
			Filter: filter,
			Page:   pagination.Params{Page: page, Limit: limit},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns a single product.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CreateProduct handles the admin multipart product form.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		uploads, err := validators.ParseImageForm(w, r, productsvc.MaxCreatePhotos, productsvc.MaxPhotoBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form := createProductForm{
			ProductName:     r.FormValue("productName"),
			Price:           strings.TrimSpace(r.FormValue("price")),
			Category:        r.FormValue("category"),
			Subcategory:     r.FormValue("subcategory"),
			Gender:          strings.ToLower(strings.TrimSpace(r.FormValue("gender"))),
			Description:     r.FormValue("description"),
			Brand:           r.FormValue("brand"),
			MaintenanceInfo: r.FormValue("maintenanceInfo"),
			IsBestseller:    r.FormValue("isBestseller"),
			Stock:           r.FormValue("stock"),
		}
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := form.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), input, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// UpdateProduct applies a partial multipart update. Only fields present in the form change.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uploads, err := validators.ParseImageForm(w, r, productsvc.MaxUpdatePhotos, productsvc.MaxPhotoBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := updateInputFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), id, input, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeleteProduct removes a product and reports what happened to each of its photos.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reports, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":      "Product deleted successfully",
			"photoDeletes": reports,
		})
	}
}

// DeleteProductPhoto removes one photo by its position in the product's photo list.
func DeleteProductPhoto(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := parseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := parseIndexParam(r, "photoIndex")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.DeletePhoto(r.Context(), id, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createProductForm struct {
	ProductName     string `json:"productName" validate:"required"`
	Price           string `json:"price" validate:"required,price"`
	Category        string `json:"category" validate:"required"`
	Subcategory     string `json:"subcategory"`
	Gender          string `json:"gender" validate:"required,gender"`
	Description     string `json:"description"`
	Brand           string `json:"brand"`
	MaintenanceInfo string `json:"maintenanceInfo"`
	IsBestseller    string `json:"isBestseller"`
	Stock           string `json:"stock"`
}

func (f createProductForm) toCreateInput() (productsvc.CreateInput, error) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return productsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	gender, err := enums.ParseGender(f.Gender)
	if err != nil {
		return productsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
	}
	return productsvc.CreateInput{
		ProductName:     f.ProductName,
		Price:           price,
		Category:        f.Category,
		Subcategory:     f.Subcategory,
		Gender:          gender,
		Description:     f.Description,
		Brand:           f.Brand,
		MaintenanceInfo: f.MaintenanceInfo,
		IsBestseller:    f.IsBestseller == "true",
		Stock:           lenientInt(f.Stock),
	}, nil
}

func updateInputFromForm(r *http.Request) (productsvc.UpdateInput, error) {
	var input productsvc.UpdateInput

	input.ProductName = formField(r, "productName")
	input.Category = formField(r, "category")
	input.Subcategory = formField(r, "subcategory")
	input.Description = formField(r, "description")
	input.Brand = formField(r, "brand")
	input.MaintenanceInfo = formField(r, "maintenanceInfo")
	input.RemovedPhotos = formField(r, "removedPhotos")

	if raw := formField(r, "price"); raw != nil && strings.TrimSpace(*raw) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*raw))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if raw := formField(r, "gender"); raw != nil && strings.TrimSpace(*raw) != "" {
		gender, err := enums.ParseGender(*raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
		}
		input.Gender = &gender
	}
	if raw := formField(r, "isBestseller"); raw != nil {
		v := *raw == "true"
		input.IsBestseller = &v
	}
	if raw := formField(r, "stock"); raw != nil {
		v := lenientInt(*raw)
		input.Stock = &v
	}
	return input, nil
}

// formField returns the first value of a multipart text field, or nil when the field is absent.
func formField(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// lenientInt parses the leading integer of s and falls back to zero.
func lenientInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || (end == 0 && s[end] == '-')) {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
