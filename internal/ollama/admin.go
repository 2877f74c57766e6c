// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// =============================================================================
// MODEL ADMINISTRATION
// =============================================================================

// Admin manages models through the official Ollama API client. It backs the
// pull, models --details and doctor commands; proofreading itself goes
// through Client.
type Admin struct {
	client  *api.Client
	baseURL string
}

// NewAdmin creates an admin client for baseURL.
func NewAdmin(baseURL string) (*Admin, error) {
	base, err := ValidateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(base)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: baseURL, Cause: err}
	}
	return &Admin{
		client:  api.NewClient(parsedURL, &http.Client{}),
		baseURL: base,
	}, nil
}

// Admin returns an admin client for the current base URL.
func (c *Client) Admin() (*Admin, error) {
	return NewAdmin(c.BaseURL())
}

// Version returns the server version.
func (a *Admin) Version(ctx context.Context) (string, error) {
	v, err := a.client.Version(ctx)
	if err != nil {
		return "", a.classify(err, "")
	}
	return v, nil
}

// PullProgress reports download progress. Total and Completed are zero for
// steps without a byte count.
type PullProgress struct {
	Status    string
	Digest    string
	Total     int64
	Completed int64
}

// Percent returns the completed share of the current step, or -1 when the
// step has no size.
func (p PullProgress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}

// Pull downloads a model, reporting progress to fn.
func (a *Admin) Pull(ctx context.Context, model string, fn func(PullProgress)) error {
	req := &api.PullRequest{Model: model}
	err := a.client.Pull(ctx, req, func(p api.ProgressResponse) error {
		if fn != nil {
			fn(PullProgress{
				Status:    p.Status,
				Digest:    p.Digest,
				Total:     p.Total,
				Completed: p.Completed,
			})
		}
		return nil
	})
	if err != nil {
		return a.classify(err, model)
	}
	return nil
}

// ModelDetail is the merged view of a model from list and show.
type ModelDetail struct {
	Name              string    `json:"name"`
	Size              int64     `json:"size"`
	ModifiedAt        time.Time `json:"modified_at"`
	Family            string    `json:"family,omitempty"`
	ParameterSize     string    `json:"parameter_size,omitempty"`
	QuantizationLevel string    `json:"quantization_level,omitempty"`
	Format            string    `json:"format,omitempty"`
}

// List returns installed models with their sizes and details.
func (a *Admin) List(ctx context.Context) ([]ModelDetail, error) {
	resp, err := a.client.List(ctx)
	if err != nil {
		return nil, a.classify(err, "")
	}

	out := make([]ModelDetail, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, ModelDetail{
			Name:              m.Name,
			Size:              m.Size,
			ModifiedAt:        m.ModifiedAt,
			Family:            m.Details.Family,
			ParameterSize:     m.Details.ParameterSize,
			QuantizationLevel: m.Details.QuantizationLevel,
			Format:            m.Details.Format,
		})
	}
	return out, nil
}

// Show returns details for one model.
func (a *Admin) Show(ctx context.Context, model string) (*ModelDetail, error) {
	resp, err := a.client.Show(ctx, &api.ShowRequest{Model: model})
	if err != nil {
		return nil, a.classify(err, model)
	}
	return &ModelDetail{
		Name:              model,
		ModifiedAt:        resp.ModifiedAt,
		Family:            resp.Details.Family,
		ParameterSize:     resp.Details.ParameterSize,
		QuantizationLevel: resp.Details.QuantizationLevel,
		Format:            resp.Details.Format,
	}, nil
}

// Unload asks the server to release a model from memory.
func (a *Admin) Unload(ctx context.Context, model string) error {
	stream := false
	req := &api.GenerateRequest{
		Model:     model,
		Stream:    &stream,
		KeepAlive: &api.Duration{Duration: 0},
	}
	err := a.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil })
	if err != nil {
		return a.classify(err, model)
	}
	return nil
}

// classify maps api client errors onto the taxonomy.
func (a *Admin) classify(err error, model string) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound && model != "" {
			return &Error{Kind: KindModelNotFound, Model: model, Cause: err}
		}
		return &Error{Kind: KindInvalidResponse, Cause: fmt.Errorf("%d: %s", statusErr.StatusCode, statusErr.ErrorMessage)}
	}
	return Classify(err, a.baseURL)
}
