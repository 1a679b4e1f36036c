package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/SeakMengs/AutoCard/internal/config"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the platform answers 404 for a record.
var ErrNotFound = util.ErrRecordNotFound

// StatusError carries a non-2xx answer of the platform API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

type baseRepository struct {
	client  *http.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// Repository talks to the school platform that owns templates, students and
// certificates. The caller's bearer token is forwarded from ctx on every call.
type Repository struct {
	BaseURL     string
	Template    *TemplateRepository
	Student     *StudentRepository
	Certificate *CertificateRepository
}

func newBaseRepository(cfg config.UpstreamConfig, logger *zap.SugaredLogger) *baseRepository {
	return &baseRepository{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func NewRepository(cfg config.UpstreamConfig, logger *zap.SugaredLogger) *Repository {
	if logger == nil {
		logger = util.NewNopLogger()
	}
	br := newBaseRepository(cfg, logger)

	return &Repository{
		BaseURL:     cfg.BaseURL,
		Template:    &TemplateRepository{baseRepository: br},
		Student:     &StudentRepository{baseRepository: br},
		Certificate: &CertificateRepository{baseRepository: br},
	}
}

// envelope is the platform's response wrapper for single records and pages.
type envelope[T any] struct {
	Data  T     `json:"data"`
	Total int64 `json:"total"`
}

func (br *baseRepository) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := br.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := autocard.BearerTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := br.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		br.logger.Debugf("Upstream %s %s answered %d", method, path, resp.StatusCode)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
