package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-digest-proxy/internal/errors"
)

// Digest — GET /digest: плоский дайджест, глобально отсортированный
// по времени публикации.
func (h *Handlers) Digest(w http.ResponseWriter, r *http.Request) {
	p, err := aggParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	resp, err := h.agg.Digest(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Latest — GET /all-latest: свежие статьи, сгруппированные по лентам,
// с пагинацией по лентам.
func (h *Handlers) Latest(w http.ResponseWriter, r *http.Request) {
	p, err := aggParams(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	resp, err := h.agg.Latest(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
