package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/internal/service"
)

// Aggregator — контракт движка агрегации, нужный HTTP-слою.
type Aggregator interface {
	Digest(ctx context.Context, p service.Params) (*models.DigestResponse, error)
	Latest(ctx context.Context, p service.Params) (*models.LatestResponse, error)
}

// Forwarder — контракт сквозного проксирования к апстриму.
type Forwarder interface {
	Forward(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error)
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	agg Aggregator
	fw  Forwarder
}

func New(agg Aggregator, fw Forwarder) *Handlers {
	return &Handlers{agg: agg, fw: fw}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// queryInt читает целочисленный query-параметр.
// Пустое значение -> def; нечисловое -> ErrInvalidArgument.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", name, service.ErrInvalidArgument)
	}

	return n, nil
}

// aggParams собирает service.Params из общих query-параметров
// label/n/page/limit (дефолты подставит сервис).
func aggParams(r *http.Request) (service.Params, error) {
	var p service.Params
	var err error

	p.Label = r.URL.Query().Get("label")

	if p.N, err = queryInt(r, "n", 0); err != nil {
		return p, err
	}

	if p.Page, err = queryInt(r, "page", 0); err != nil {
		return p, err
	}

	if p.Limit, err = queryInt(r, "limit", 0); err != nil {
		return p, err
	}

	return p, nil
}
