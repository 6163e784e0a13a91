package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticTokens(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func TestUploadAndDelete(t *testing.T) {
	var uploadedKey, uploadedBody, deletedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload/storage/v1/b/shop-bucket/o":
			assert.Equal(t, "media", r.URL.Query().Get("uploadType"))
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			uploadedKey = r.URL.Query().Get("name")
			b, _ := io.ReadAll(r.Body)
			uploadedBody = string(b)
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodDelete:
			deletedPath = r.URL.EscapedPath()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	cfg := config.GCSConfig{BucketName: "shop-bucket", ObjectPrefix: "images", PublicBaseURL: "https://cdn.example.com/"}
	client := newClient(resty.New(), cfg, srv.URL, staticTokens("tok"))

	publicURL, err := client.Upload(context.Background(), "product-1-shoe.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "images/product-1-shoe.png", uploadedKey)
	assert.Equal(t, "png-bytes", uploadedBody)
	assert.Equal(t, "https://cdn.example.com/shop-bucket/images/product-1-shoe.png", publicURL)

	require.NoError(t, client.Delete(context.Background(), publicURL))
	assert.Equal(t, "/storage/v1/b/shop-bucket/o/images%2Fproduct-1-shoe.png", deletedPath)
}

func TestDeleteTreatsMissingObjectAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newClient(resty.New(), config.GCSConfig{BucketName: "b"}, srv.URL, staticTokens("tok"))
	assert.NoError(t, client.Delete(context.Background(), "https://storage.googleapis.com/b/gone.png"))
}

func TestUploadSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"denied"}`))
	}))
	defer srv.Close()

	client := newClient(resty.New(), config.GCSConfig{BucketName: "b"}, srv.URL, staticTokens("tok"))
	_, err := client.Upload(context.Background(), "x.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")

	assert.Error(t, client.Ping(context.Background()))
}

func TestServiceAccountTokenExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(r.Form.Get("assertion"), claims, func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		assert.NoError(t, err)
		assert.Equal(t, "signer@example.com", claims["iss"])
		assert.Equal(t, scope, claims["scope"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "ya29.token", "expires_in": 3600})
	}))
	defer srv.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "signer@example.com",
		"private_key":  string(keyPEM),
		"token_uri":    srv.URL + "/token",
	})
	require.NoError(t, err)

	ts, err := newServiceAccountTokenSource(resty.New(), string(creds))
	require.NoError(t, err)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token)

	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "token should be cached until near expiry")
}

func TestServiceAccountCredentialsValidation(t *testing.T) {
	_, err := newServiceAccountTokenSource(resty.New(), "{")
	assert.Error(t, err)
	_, err = newServiceAccountTokenSource(resty.New(), `{"client_email":"a@b"}`)
	assert.Error(t, err)
	_, err = newServiceAccountTokenSource(resty.New(), `{"client_email":"a@b","private_key":"not pem"}`)
	assert.Error(t, err)
}
