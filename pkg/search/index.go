// Package search keeps a product index in Elasticsearch for free-text queries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// ErrDisabled is returned by Noop.Search so callers can fall back to the database.
var ErrDisabled = errors.New("search index disabled")

// Document is the indexed projection of a product.
type Document struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	CatName     string  `json:"catName"`
	SubCat      string  `json:"subCat"`
	ThirdSubCat string  `json:"thirdSubCat"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	IsFeatured  bool    `json:"isFeatured"`
}

type Result struct {
	Total int64
	IDs   []string
}

type ProductIndex interface {
	Index(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (Result, error)
}

type Noop struct{}

func (Noop) Index(context.Context, Document) error { return nil }
func (Noop) Delete(context.Context, string) error  { return nil }
func (Noop) Search(context.Context, string, int, int) (Result, error) {
	return Result{}, ErrDisabled
}

type Elastic struct {
	es    *elasticsearch.Client
	index string
}

var _ ProductIndex = (*Elastic)(nil)

// New returns an Elasticsearch-backed index when addresses are configured,
// otherwise Noop.
func New(ctx context.Context, cfg config.SearchConfig, logg *logger.Logger) (ProductIndex, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	idx, err := NewElastic(cfg)
	if err != nil {
		return nil, err
	}
	if err := idx.Ping(ctx); err != nil {
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addresses": cfg.Addresses, "index": cfg.ProductIndex}), "elasticsearch product index ready")
	}
	return idx, nil
}

func NewElastic(cfg config.SearchConfig) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	index := cfg.ProductIndex
	if index == "" {
		index = "products"
	}
	return &Elastic{es: client, index: index}, nil
}

func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.es.Info(e.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	return checkResponse(res, "info")
}

func (e *Elastic) Index(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("search document id is required")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode search document: %w", err)
	}
	res, err := e.es.Index(e.index, bytes.NewReader(body),
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index %s: %w", doc.ID, err)
	}
	return checkResponse(res, "index")
}

// Delete treats a missing document as already removed.
func (e *Elastic) Delete(ctx context.Context, id string) error {
	res, err := e.es.Delete(e.index, id, e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete %s: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete")
}

func (e *Elastic) Search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^3", "brand^2", "catName", "subCat", "thirdSubCat", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("encode search query: %w", err)
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, responseError(res, "search")
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("decode search response: %w", err)
	}

	out := Result{Total: r.Hits.Total.Value, IDs: make([]string, 0, len(r.Hits.Hits))}
	for _, hit := range r.Hits.Hits {
		out.IDs = append(out.IDs, hit.ID)
	}
	return out, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, op)
	}
	return nil
}

func responseError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch %s failed with status %d: %s", op, res.StatusCode, strings.TrimSpace(string(body)))
}
