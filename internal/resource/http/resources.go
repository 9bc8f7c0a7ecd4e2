package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/resource/store"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

const maxNameLength = 200

var errResourceNotFound = authsdk.NewOAuth2Error(http.StatusNotFound, "not_found", "resource not found")

type ResourceHandler struct {
	Store ResourceStore
}

func (h *ResourceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.List(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("list resources failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	resp := authsdk.ListResourcesResponse{Resources: make([]authsdk.Resource, 0, len(items))}
	for _, it := range items {
		resp.Resources = append(resp.Resources, toResponse(it))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ResourceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	var req authsdk.CreateResourceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "body must be a JSON object").WriteError(w)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxNameLength {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "name is required and at most 200 characters").WriteError(w)
		return
	}

	item, err := h.Store.Create(ctx, req.Name, p.Subject)
	if err != nil {
		log.Error("create resource failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("resource created", "resource_id", item.ID)
	httpx.WriteJSON(w, http.StatusCreated, toResponse(item))
}

func (h *ResourceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errResourceNotFound.WriteError(w)
			return
		}
		slogx.FromContext(ctx).Error("delete resource failed", "resource_id", id, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	slogx.FromContext(ctx).Info("resource deleted", "resource_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResourceHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Store.Summary(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("summarise resources failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AdminSummaryResponse{
		Resources: sum.Total,
		ByOwner:   sum.ByOwner,
	})
}

func toResponse(r store.Resource) authsdk.Resource {
	return authsdk.Resource{
		ID:        r.ID,
		Name:      r.Name,
		Owner:     r.Owner,
		CreatedAt: r.CreatedAt,
	}
}
