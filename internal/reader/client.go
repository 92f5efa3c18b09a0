// reader — клиент FreshRSS-совместимого (Google Reader API) апстрима.
//
// Клиент выполняет один HTTP-вызов без ретраев и классифицирует исход
// sentinel-ошибками ErrTimeout/ErrRequest/ErrDecode; политика повторов
// живёт уровнем выше, в service.
package reader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/pkg/log"
)

var (
	// ErrTimeout — вызов не уложился в таймаут.
	ErrTimeout = errors.New("upstream timeout")
	// ErrRequest — транспортная ошибка либо не-2xx статус.
	ErrRequest = errors.New("upstream request failed")
	// ErrDecode — тело ответа не разобралось как JSON.
	ErrDecode = errors.New("upstream response decode failed")
)

// Client — HTTP-клиент апстрима. Таймауты задаются снаружи через http.Client.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// New создаёт клиент апстрима.
// Если client == nil, используется клиент с таймаутом timeout (или 10s).
func New(client *http.Client, baseURL, token string, timeout time.Duration) *Client {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}

		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
		token:   token,
	}
}

// Subscriptions загружает полный список подписок.
func (c *Client) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	const op = "reader.Subscriptions"

	q := url.Values{}
	q.Set("output", "json")

	var list models.SubscriptionList
	if err := c.get(ctx, "subscription/list", q, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list.Subscriptions, nil
}

// StreamContents загружает до n свежих статей ленты с числовым id.
// Возвращает items апстрима как есть (nil -> пустой срез).
func (c *Client) StreamContents(ctx context.Context, numericID string, n int) ([]models.Item, error) {
	const op = "reader.StreamContents"

	q := url.Values{}
	q.Set("n", strconv.Itoa(n))

	var list models.ItemList
	if err := c.get(ctx, "stream/contents/feed/"+numericID, q, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if list.Items == nil {
		return []models.Item{}, nil
	}

	return list.Items, nil
}

// Forward проксирует произвольный разрешённый endpoint 1:1 и возвращает
// тело апстрима без изменений (но с проверкой, что это корректный JSON).
func (c *Client) Forward(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	const op = "reader.Forward"

	var raw json.RawMessage
	if err := c.get(ctx, endpoint, query, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return raw, nil
}

// get — общий GET с авторизацией и классификацией исходов.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, target any) error {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: new request: %v", ErrRequest, err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "GoogleLogin auth="+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.From(ctx).Warn("upstream_timeout",
				slog.String("endpoint", endpoint),
			)
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		log.From(ctx).Warn("upstream_request_error",
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		log.From(ctx).Warn("upstream_bad_status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status=%d", ErrRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		log.From(ctx).Warn("upstream_decode_error",
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}

// isTimeout распознаёт таймаут запроса: дедлайн контекста либо
// таймаут http.Client (net.Error с Timeout() == true).
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}

	return false
}
