package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubProducts struct {
	products.Service
	lastList products.ListInput
}

func (s *stubProducts) List(ctx context.Context, input products.ListInput) (types.Page[products.ProductDTO], error) {
	s.lastList = input
	return types.Page[products.ProductDTO]{Items: []products.ProductDTO{}, Page: input.Pagination.Page, PerPage: input.Pagination.PerPage}, nil
}

type stubCart struct {
	cart.Service
	items []cart.CartItemDTO
}

func (s *stubCart) List(ctx context.Context, userID uuid.UUID) ([]cart.CartItemDTO, error) {
	return s.items, nil
}

type stubUsers struct {
	users.Service
	avatarName string
	avatarBody string
}

func (s *stubUsers) UploadAvatar(ctx context.Context, userID uuid.UUID, file media.File) (*users.AvatarDTO, error) {
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return nil, err
	}
	s.avatarName = file.Name
	s.avatarBody = string(body)
	return &users.AvatarDTO{ID: userID, Avatar: "https://cdn.example.com/" + file.Name}, nil
}

type stubAuth struct {
	auth.Service
	resp *auth.LoginResponse
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, nil
}

type stubOrders struct {
	orders.Service
	lastVerify orders.VerifyInput
}

func (s *stubOrders) Verify(ctx context.Context, userID uuid.UUID, input orders.VerifyInput) (*orders.OrderDTO, error) {
	s.lastVerify = input
	return &orders.OrderDTO{}, nil
}

type stubBanners struct {
	banners.Service
	lastCreate banners.CreateInput
	uploadBody string
}

func (s *stubBanners) Create(ctx context.Context, input banners.CreateInput) (*banners.BannerDTO, error) {
	s.lastCreate = input
	if input.Upload != nil {
		body, _ := io.ReadAll(input.Upload.Body)
		s.uploadBody = string(body)
	}
	return &banners.BannerDTO{Title: input.Title}, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), middleware.Caller{UserID: userID, Role: enums.RoleUser}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.RouteContext(req.Context())
	if routeCtx == nil {
		routeCtx = chi.NewRouteContext()
	}
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) types.SuccessEnvelope {
	t.Helper()
	var env types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

type formFile struct {
	field, name, contentType, body string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProductsByPriceParsesFilters(t *testing.T) {
	svc := &stubProducts{}
	catID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/product/filterByPrice?minPrice=10&maxPrice=50.5&catId="+catID.String()+"&page=2&perPage=5", nil)
	rec := httptest.NewRecorder()

	ProductsByPrice(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	filters := svc.lastList.Filters
	require.NotNil(t, filters.CatID)
	assert.Equal(t, catID, *filters.CatID)
	assert.Nil(t, filters.SubCatID)
	require.NotNil(t, filters.MinPrice)
	require.NotNil(t, filters.MaxPrice)
	assert.True(t, filters.MinPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, filters.MaxPrice.Equal(decimal.RequireFromString("50.5")))
	assert.Equal(t, 2, svc.lastList.Pagination.Page)
	assert.Equal(t, 5, svc.lastList.Pagination.PerPage)
	assert.Equal(t, "items fetched successfully", decodeSuccess(t, rec).Message)
}

func TestProductBrowseValidation(t *testing.T) {
	tests := []struct {
		name    string
		handler func(products.Service, *logger.Logger) http.HandlerFunc
		target  string
	}{
		{name: "category id required", handler: ProductsByCategory, target: "/api/product/byCategory"},
		{name: "malformed category id", handler: ProductsByCategory, target: "/api/product/byCategory?catId=nope"},
		{name: "category name required", handler: ProductsByCategoryName, target: "/api/product/byCategoryName"},
		{name: "rating required", handler: ProductsByRating, target: "/api/product/byRating"},
		{name: "rating out of range", handler: ProductsByRating, target: "/api/product/byRating?rating=7"},
		{name: "bad price", handler: ProductsByPrice, target: "/api/product/filterByPrice?minPrice=abc"},
		{name: "per page too large", handler: ProductList, target: "/api/product?perPage=1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(&stubProducts{}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductsByRatingSetsMinimum(t *testing.T) {
	svc := &stubProducts{}
	rec := httptest.NewRecorder()
	ProductsByRating(svc, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/product/byRating?rating=4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastList.Filters.MinRating)
	assert.Equal(t, 4.0, *svc.lastList.Filters.MinRating)
}

func TestCartListMessages(t *testing.T) {
	userID := uuid.New()

	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/cart", nil), userID)
	CartList(&stubCart{}, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeSuccess(t, rec)
	assert.Equal(t, "Cart is empty", env.Message)
	assert.Equal(t, []any{}, env.Data)

	rec = httptest.NewRecorder()
	req = withUser(httptest.NewRequest(http.MethodGet, "/api/cart", nil), userID)
	CartList(&stubCart{items: []cart.CartItemDTO{{ID: uuid.New(), Quantity: 1}}}, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cart fetched successfully", decodeSuccess(t, rec).Message)
}

func TestCartListRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CartList(&stubCart{}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNilServiceIsInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	CartList(nil, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserUpdateRejectsOtherUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/user/x", strings.NewReader(`{"name":"Mallory"}`))
	req = withURLParam(withUser(req, uuid.New()), "id", uuid.New().String())
	rec := httptest.NewRecorder()

	UserUpdate(&stubUsers{}, logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserAvatarUploadsMultipartFile(t *testing.T) {
	userID := uuid.New()
	svc := &stubUsers{}
	req := multipartRequest(t, http.MethodPost, "/api/user/user-avatar", nil,
		formFile{field: "avatar", name: "me.png", contentType: "image/png", body: "png-bytes"})
	req = withUser(req, userID)
	rec := httptest.NewRecorder()

	UserAvatar(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "me.png", svc.avatarName)
	assert.Equal(t, "png-bytes", svc.avatarBody)
	env := decodeSuccess(t, rec)
	assert.Equal(t, "Avatar updated successfully", env.Message)
	assert.Equal(t, "https://cdn.example.com/me.png", env.Data.(map[string]any)["avatar"])
}

func TestUserAvatarRequiresFile(t *testing.T) {
	req := multipartRequest(t, http.MethodPost, "/api/user/user-avatar", map[string]string{"note": "x"})
	req = withUser(req, uuid.New())
	rec := httptest.NewRecorder()

	UserAvatar(&stubUsers{}, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decodeError(t, rec).Message)
}

func TestUserLoginSetsTokenHeader(t *testing.T) {
	svc := &stubAuth{resp: &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}}
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"email":"a@b.co","password":"secret1"}`))
	rec := httptest.NewRecorder()

	UserLogin(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access", rec.Header().Get(validators.AccessTokenHeader))
	data := decodeSuccess(t, rec).Data.(map[string]any)
	assert.Equal(t, "refresh", data["refreshToken"])
}

func TestUserLoginRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"email":"a@b.co","password":"x","admin":true}`))
	rec := httptest.NewRecorder()

	UserLogin(&stubAuth{}, logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderVerifyIgnoresCheckoutWidgetFields(t *testing.T) {
	svc := &stubOrders{}
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig","amount":"10","delivery_address":"a1","cartData":[{"productId":"p1","quantity":2,"brand":"x"}],"userEmail":"a@b.co"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/order/verify", strings.NewReader(body)), uuid.New())
	rec := httptest.NewRecorder()

	OrderVerify(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order_1", svc.lastVerify.OrderID)
	require.Len(t, svc.lastVerify.CartData, 1)
	assert.Equal(t, "p1", svc.lastVerify.CartData[0].ProductID)
}

func TestBannerCreateFromMultipart(t *testing.T) {
	svc := &stubBanners{}
	req := multipartRequest(t, http.MethodPost, "/api/banners",
		map[string]string{"title": "Sale", "order": "2", "status": "inactive"},
		formFile{field: "image", name: "b.jpg", contentType: "image/jpeg", body: "jpeg"})
	rec := httptest.NewRecorder()

	BannerCreate(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Sale", svc.lastCreate.Title)
	assert.Equal(t, 2, svc.lastCreate.Order)
	assert.Equal(t, enums.VisibilityInactive, svc.lastCreate.Status)
	assert.Equal(t, "jpeg", svc.uploadBody)
}

func TestBannerCreateRejectsBadOrder(t *testing.T) {
	req := multipartRequest(t, http.MethodPost, "/api/banners", map[string]string{"title": "Sale", "order": "first"})
	rec := httptest.NewRecorder()

	BannerCreate(&stubBanners{}, logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	deps := map[string]Pinger{
		"db":    pingerFunc(func(context.Context) error { return nil }),
		"redis": down,
		"gcs":   down,
		"none":  nil,
	}
	rec := httptest.NewRecorder()

	HealthReady(cfg, logger.Nop(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))
	assert.JSONEq(t, `{"success":false,"error":true,"message":"dependencies unavailable","code":"DEPENDENCY_ERROR","details":{"failed":["gcs","redis"]}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	delete(deps, "redis")
	delete(deps, "gcs")
	HealthReady(cfg, logger.Nop(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
