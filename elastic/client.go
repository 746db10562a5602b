package elastic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"esmrebuild/indexer"
	"esmrebuild/models"

	"github.com/bytedance/sonic"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// DefaultPort is appended to node addresses given without a port
const DefaultPort = "9200"

// Config holds the settings of the Elasticsearch backend
type Config struct {
	// Node is the address of the node, with or without scheme and port
	Node     string
	Username string
	Password string

	// CompressionLevel holds the gzip level for bulk bodies, from 1 to 9.
	// Zero disables compression, -1 selects the default level.
	CompressionLevel int

	// IncludeTypeName emits _type in bulk metadata and puts mappings under their
	// type name, for clusters that still use mapping types
	IncludeTypeName bool

	// Refresh is passed as the refresh parameter of bulk requests when not empty
	Refresh string

	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Backend implements indexer.Backend on top of go-elasticsearch
type Backend struct {
	client *elasticsearch.Client
	config Config
	logger *zap.Logger
}

var _ indexer.Backend = (*Backend)(nil)

// NewBackend creates a Backend talking to cfg.Node
func NewBackend(cfg Config, logger *zap.Logger) (*Backend, error) {
	if cfg.CompressionLevel < -1 || cfg.CompressionLevel > 9 {
		return nil, fmt.Errorf("expected CompressionLevel in range [-1,9], got %d", cfg.CompressionLevel)
	}

	address, err := NormalizeAddress(cfg.Node)
	if err != nil {
		return nil, err
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{address},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	logger.Debug("Elasticsearch client created", zap.String("address", address))

	return &Backend{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// NormalizeAddress turns a bare host into a URL, adding http:// and the default port
func NormalizeAddress(node string) (string, error) {
	node = strings.TrimSpace(node)
	if node == "" {
		return "", errors.New("elasticsearch node address is empty")
	}
	if !strings.Contains(node, "://") {
		node = "http://" + node
	}

	u, err := url.Parse(node)
	if err != nil {
		return "", fmt.Errorf("invalid elasticsearch node address %q: %w", node, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid elasticsearch node address %q: missing host", node)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

// IndexExists checks the index with a HEAD request
func (b *Backend) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := b.client.Indices.Exists(
		[]string{index},
		b.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("checking existence of %q: %w", index, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("checking existence of %q: %w", index, checkResponse(res))
	}
}

// CreateIndex creates an empty index
func (b *Backend) CreateIndex(ctx context.Context, index string) error {
	res, err := b.client.Indices.Create(
		index,
		b.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("creating index %q: %w", index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("creating index %q: %w", index, err)
	}

	return nil
}

// DeleteIndex deletes an index
func (b *Backend) DeleteIndex(ctx context.Context, index string) error {
	res, err := b.client.Indices.Delete(
		[]string{index},
		b.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("deleting index %q: %w", index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("deleting index %q: %w", index, err)
	}

	return nil
}

// PutMapping sends the mapping body. The document type only names the
// mapping on the client side; typeless clusters take the body as is.
func (b *Backend) PutMapping(ctx context.Context, index, docType string, body []byte) error {
	var (
		res *esapi.Response
		err error
	)
	if b.config.IncludeTypeName {
		res, err = b.putTypedMapping(ctx, index, docType, body)
	} else {
		res, err = b.client.Indices.PutMapping(
			[]string{index},
			bytes.NewReader(body),
			b.client.Indices.PutMapping.WithContext(ctx),
		)
	}
	if err != nil {
		return fmt.Errorf("putting mapping %q on %q: %w", docType, index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("putting mapping %q on %q: %w", docType, index, err)
	}

	return nil
}

// putTypedMapping sends PUT /<index>/_mapping/<type>, which the v8 esapi no longer exposes
func (b *Backend) putTypedMapping(ctx context.Context, index, docType string, body []byte) (*esapi.Response, error) {
	path := "/" + url.PathEscape(index) + "/_mapping/" + url.PathEscape(docType) + "?include_type_name=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.client.Perform(req)
	if err != nil {
		return nil, err
	}
	return &esapi.Response{StatusCode: res.StatusCode, Header: res.Header, Body: res.Body}, nil
}

// GetMapping returns the "mappings" object of index
func (b *Backend) GetMapping(ctx context.Context, index string) (map[string]any, error) {
	res, err := b.client.Indices.GetMapping(
		b.client.Indices.GetMapping.WithIndex(index),
		b.client.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("getting mapping of %q: %w", index, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("getting mapping of %q: %w", index, err)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading mapping response: %w", err)
	}

	var result map[string]struct {
		Mappings map[string]any `json:"mappings"`
	}
	if err := sonic.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding mapping response: %w", err)
	}

	return result[index].Mappings, nil
}

// Bulk sends all actions in one _bulk request
func (b *Backend) Bulk(ctx context.Context, actions []models.IndexAction) (indexer.BulkResult, error) {
	body, err := EncodeBulk(actions, b.config.IncludeTypeName)
	if err != nil {
		return indexer.BulkResult{}, err
	}
	size := len(body)

	opts := []func(*esapi.BulkRequest){
		b.client.Bulk.WithContext(ctx),
	}
	if b.config.Refresh != "" {
		opts = append(opts, b.client.Bulk.WithRefresh(b.config.Refresh))
	}
	if b.config.CompressionLevel != gzip.NoCompression {
		body, err = compress(body, b.config.CompressionLevel)
		if err != nil {
			return indexer.BulkResult{}, err
		}
		opts = append(opts, b.client.Bulk.WithHeader(map[string]string{"Content-Encoding": "gzip"}))
	}

	b.logger.Debug("Sending bulk request",
		zap.Int("actions", len(actions)),
		zap.Int("bytes", size),
		zap.Int("bytes_sent", len(body)))

	res, err := b.client.Bulk(bytes.NewReader(body), opts...)
	if err != nil {
		return indexer.BulkResult{}, fmt.Errorf("sending bulk request: %w", err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return indexer.BulkResult{}, fmt.Errorf("sending bulk request: %w", err)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return indexer.BulkResult{}, fmt.Errorf("reading bulk response: %w", err)
	}

	return DecodeBulkResponse(data)
}

func compress(body []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("compressing bulk body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compressing bulk body: %w", err)
	}
	return buf.Bytes(), nil
}

// checkResponse checks an Elasticsearch API response for errors.
func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch error [%s]: %s", res.Status(), string(body))
}
