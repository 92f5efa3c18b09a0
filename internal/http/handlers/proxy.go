package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-digest-proxy/internal/errors"
	"github.com/pribylovaa/go-digest-proxy/internal/service"
	"github.com/pribylovaa/go-digest-proxy/pkg/log"
)

// allowedEndpoints — allow-list сквозных endpoint'ов апстрима.
// Совпадение строгое, по полному пути.
var allowedEndpoints = map[string]struct{}{
	"subscription/list": {},
	"stream/contents":   {},
	"marker/tag/lists":  {},
}

// Subscriptions — GET /subscriptions: список подписок апстрима 1:1.
func (h *Handlers) Subscriptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("output", "json")

	raw, err := h.fw.Forward(r.Context(), "subscription/list", q)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, raw)
}

// FeedContents — GET /feed/{id}: статьи одной ленты 1:1,
// query-параметры (n и прочие) пробрасываются без изменений.
func (h *Handlers) FeedContents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	numeric, ok := service.NumericFeedID(id)
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	raw, err := h.fw.Forward(r.Context(), "stream/contents/feed/"+numeric, r.URL.Query())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, raw)
}

// Endpoint — GET /?endpoint=<path>: универсальное сквозное проксирование
// по allow-list. Отсутствующий endpoint -> 400, неразрешённый -> 403.
func (h *Handlers) Endpoint(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if _, ok := allowedEndpoints[endpoint]; !ok {
		log.From(r.Context()).Warn("endpoint_not_allowed",
			slog.String("endpoint", endpoint),
		)
		apierrors.WriteError(w, r, apierrors.ErrEndpointNotAllowed)
		return
	}

	q := r.URL.Query()
	q.Del("endpoint")

	raw, err := h.fw.Forward(r.Context(), endpoint, q)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, raw)
}
