package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Me returns the principal the resource service verified from the token.
func (s *Session) Me(ctx context.Context) (*PrincipalResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var me PrincipalResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// ListResources requires the read scope rule.
func (s *Session) ListResources(ctx context.Context) (*ListResourcesResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/resources", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ListResourcesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateResource requires the write scope rule.
func (s *Session) CreateResource(ctx context.Context, req CreateResourceRequest) (*Resource, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/resources", bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return nil, err
	}

	var out Resource
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteResource requires the delete scope rule.
func (s *Session) DeleteResource(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/resources/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// AdminSummary requires the admin scope rule.
func (s *Session) AdminSummary(ctx context.Context) (*AdminSummaryResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/summary", nil, nil)
	if err != nil {
		return nil, err
	}

	var out AdminSummaryResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
