// Package client is a typed HTTP client for the Query Service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crimemap/crimemap/internal/model"
)

// ErrStatus is wrapped by every non-2xx response. The error text carries the
// status code and the response body.
var ErrStatus = errors.New("unexpected status")

// StatusError describes a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client calls the five Query Service endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL (e.g. http://localhost:8080). A nil hc
// uses a client with a 30s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Codes lists codes, optionally restricted to codes.
func (c *Client) Codes(ctx context.Context, codes []int) ([]model.Code, error) {
	q := url.Values{}
	setIntList(q, "code", codes)
	var out []model.Code
	return out, c.getJSON(ctx, "/codes", q, &out)
}

// Neighborhoods lists neighborhoods, optionally restricted to ids.
func (c *Client) Neighborhoods(ctx context.Context, ids []int) ([]model.Neighborhood, error) {
	q := url.Values{}
	setIntList(q, "id", ids)
	var out []model.Neighborhood
	return out, c.getJSON(ctx, "/neighborhoods", q, &out)
}

// Incidents lists incidents matching f, newest first.
func (c *Client) Incidents(ctx context.Context, f model.IncidentFilter) ([]model.Incident, error) {
	var out []model.Incident
	return out, c.getJSON(ctx, "/incidents", IncidentQuery(f), &out)
}

// CreateIncident sends PUT /new-incident.
func (c *Client) CreateIncident(ctx context.Context, inc model.Incident) error {
	return c.sendJSON(ctx, http.MethodPut, "/new-incident", inc)
}

// DeleteIncident sends DELETE /remove-incident.
func (c *Client) DeleteIncident(ctx context.Context, caseNumber string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/remove-incident", model.DeleteIncidentRequest{CaseNumber: caseNumber})
}

// IncidentQuery encodes f as /incidents query parameters. Zero fields are
// omitted.
func IncidentQuery(f model.IncidentFilter) url.Values {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	setIntList(q, "code", f.Codes)
	setIntList(q, "grid", f.Grids)
	setIntList(q, "neighborhood", f.Neighborhoods)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func setIntList(q url.Values, key string, vals []int) {
	if len(vals) == 0 {
		return
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	q.Set(key, strings.Join(parts, ","))
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
