package schools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrSchoolsUnavailable — the schools microservice did not answer.
	ErrSchoolsUnavailable = errors.New("schools service unavailable")
	// ErrSchoolsRejected — the schools microservice refused the request.
	ErrSchoolsRejected = errors.New("schools service rejected request")
	// ErrNotFound — the requested school or subject does not exist.
	ErrNotFound = errors.New("not found")
)

// The schools microservice serves subjects under /materie.
const (
	schoolsEndpoint  = "/schools"
	subjectsEndpoint = "/materie"
)

// Service proxies the schools/subjects catalog to the schools
// microservice. The gateway holds no catalog state and no catalog schema:
// bodies pass through as raw JSON in both directions.
type Service struct {
	baseURL string
	client  *http.Client
}

func NewService(baseURL string, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *Service) ListSchools(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return s.do(ctx, http.MethodGet, schoolsEndpoint, query, nil)
}

func (s *Service) GetSchool(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", schoolsEndpoint, id), nil, nil)
}

func (s *Service) CreateSchool(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPost, schoolsEndpoint, nil, body)
}

func (s *Service) UpdateSchool(ctx context.Context, id int64, body json.RawMessage) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", schoolsEndpoint, id), nil, body)
}

func (s *Service) DeleteSchool(ctx context.Context, id int64) error {
	_, err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", schoolsEndpoint, id), nil, nil)
	return err
}

func (s *Service) ListSubjects(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return s.do(ctx, http.MethodGet, subjectsEndpoint, query, nil)
}

func (s *Service) GetSubject(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", subjectsEndpoint, id), nil, nil)
}

func (s *Service) CreateSubject(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPost, subjectsEndpoint, nil, body)
}

func (s *Service) UpdateSubject(ctx context.Context, id int64, body json.RawMessage) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", subjectsEndpoint, id), nil, body)
}

func (s *Service) DeleteSubject(ctx context.Context, id int64) error {
	_, err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", subjectsEndpoint, id), nil, nil)
	return err
}

func (s *Service) do(ctx context.Context, method, endpoint string, query url.Values, body json.RawMessage) (json.RawMessage, error) {
	target := s.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchoolsUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrSchoolsUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d", ErrSchoolsRejected, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchoolsUnavailable, err)
	}
	return data, nil
}
