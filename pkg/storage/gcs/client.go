package gcs

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	scope            = "https://www.googleapis.com/auth/devstorage.read_write"
	metadataToken    = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"
	defaultAPIBase   = "https://storage.googleapis.com"
	requestTimeout   = 30 * time.Second
	pingTimeout      = 5 * time.Second
	tokenRefreshSkew = time.Minute
)

// Client uploads images to a single bucket through the GCS JSON API and
// serves them from PublicBaseURL.
type Client struct {
	http        *resty.Client
	bucket      string
	prefix      string
	publicBase  string
	apiBase     string
	tokenSource *tokenSource
}

var _ storage.ImageStore = (*Client)(nil)

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient resolves credentials (inline JSON, credentials file, or the
// metadata server) and verifies bucket access.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := resty.New().SetTimeout(requestTimeout)

	var (
		ts  *tokenSource
		err error
	)
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(raw))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := newClient(httpClient, cfg, defaultAPIBase, ts)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func newClient(httpClient *resty.Client, cfg config.GCSConfig, apiBase string, ts *tokenSource) *Client {
	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = defaultAPIBase
	}
	return &Client{
		http:        httpClient,
		bucket:      cfg.BucketName,
		prefix:      cfg.ObjectPrefix,
		publicBase:  publicBase,
		apiBase:     strings.TrimRight(apiBase, "/"),
		tokenSource: ts,
	}
}

// Upload stores body under the configured prefix and returns the public URL.
func (c *Client) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return "", err
	}
	key := storage.JoinKey(c.prefix, name)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", contentType).
		SetQueryParams(map[string]string{"uploadType": "media", "name": key}).
		SetBody(body).
		Post(fmt.Sprintf("%s/upload/storage/v1/b/%s/o", c.apiBase, url.PathEscape(c.bucket)))
	if err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gcs upload %s: %s: %s", key, resp.Status(), trimBody(resp.Body()))
	}
	return c.PublicURL(key), nil
}

// Delete removes the object behind publicURL. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, publicURL string) error {
	name, err := storage.NameFromURL(publicURL)
	if err != nil {
		return err
	}
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}
	key := storage.JoinKey(c.prefix, name)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Delete(fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.apiBase, url.PathEscape(c.bucket), url.PathEscape(key)))
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("gcs delete %s: %s: %s", key, resp.Status(), trimBody(resp.Body()))
	}
	return nil
}

// PublicURL is where a stored key can be fetched anonymously.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, key)
}

// Ping lists at most one object, which needs storage.objects.list on the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetQueryParam("maxResults", "1").
		Get(fmt.Sprintf("%s/storage/v1/b/%s/o", c.apiBase, url.PathEscape(c.bucket)))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gcs object check failed: %s: %s", resp.Status(), trimBody(resp.Body()))
	}
	return nil
}

func trimBody(b []byte) string {
	if len(b) > 2048 {
		b = b[:2048]
	}
	return strings.TrimSpace(string(b))
}

type tokenSource struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	fetch  func(context.Context) (string, time.Time, error)
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expiry) > tokenRefreshSkew {
		return t.token, nil
	}
	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token, t.expiry = token, expiry
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newServiceAccountTokenSource(client *resty.Client, jsonCreds string) (*tokenSource, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal([]byte(jsonCreds), &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("invalid service account credentials")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = tokenEndpoint
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			return fetchServiceAccountToken(ctx, client, creds.ClientEmail, key, creds.TokenURI, time.Now())
		},
	}, nil
}

func newMetadataTokenSource(client *resty.Client) *tokenSource {
	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			var out tokenResponse
			resp, err := client.R().
				SetContext(ctx).
				SetHeader("Metadata-Flavor", "Google").
				SetResult(&out).
				Get(metadataToken)
			if err != nil {
				return "", time.Time{}, err
			}
			if resp.StatusCode() != http.StatusOK {
				return "", time.Time{}, fmt.Errorf("metadata token request returned %s", resp.Status())
			}
			return out.AccessToken, time.Now().Add(time.Duration(out.ExpiresIn) * time.Second), nil
		},
	}
}

// serviceAccountAssertion is the RS256 JWT exchanged for an access token.
func serviceAccountAssertion(email string, key *rsa.PrivateKey, audience string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   email,
		"scope": scope,
		"aud":   audience,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

func fetchServiceAccountToken(ctx context.Context, client *resty.Client, email string, key *rsa.PrivateKey, tokenURI string, now time.Time) (string, time.Time, error) {
	assertion, err := serviceAccountAssertion(email, key, tokenURI, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token assertion: %w", err)
	}

	var out tokenResponse
	resp, err := client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": "urn:ietf:params:oauth:grant-type:jwt-bearer",
			"assertion":  assertion,
		}).
		SetResult(&out).
		Post(tokenURI)
	if err != nil {
		return "", time.Time{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint returned %s", resp.Status())
	}
	return out.AccessToken, time.Now().Add(time.Duration(out.ExpiresIn) * time.Second), nil
}
