// service содержит бизнес-логику digest-proxy: движок агрегации
// поверх клиента апстрима и TTL-кэша.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pribylovaa/go-digest-proxy/internal/cache"
	"github.com/pribylovaa/go-digest-proxy/internal/config"
	"github.com/pribylovaa/go-digest-proxy/internal/models"
)

var (
	// ErrDirectoryUnavailable — не удалось получить список подписок
	// (таймаут/транспорт/не-2xx). Транспорт: 502.
	ErrDirectoryUnavailable = errors.New("subscription directory unavailable")
	// ErrDirectoryDecode — апстрим ответил, но тело списка подписок
	// не разобралось. Транспорт: 500.
	ErrDirectoryDecode = errors.New("subscription directory decode failed")
	// ErrInvalidArgument — некорректные входные параметры запроса.
	// Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Client — контракт апстрима, нужный агрегатору.
type Client interface {
	// Subscriptions возвращает полный список подписок.
	Subscriptions(ctx context.Context) ([]models.Subscription, error)
	// StreamContents возвращает до n свежих статей ленты с числовым id.
	StreamContents(ctx context.Context, numericID string, n int) ([]models.Item, error)
}

// Service — движок агрегации.
type Service struct {
	client Client
	cache  *cache.Cache
	cfg    config.Config
}

// New создает новый экземпляр Service.
// Кэш — явная инъецируемая зависимость: один на процесс в проде,
// свежий на кейс в тестах.
func New(client Client, c *cache.Cache, cfg config.Config) *Service {
	if c == nil {
		c = cache.New(cfg.Aggregator.CacheTTL)
	}

	return &Service{
		client: client,
		cache:  c,
		cfg:    cfg,
	}
}

// Params — семантические параметры запроса агрегации.
type Params struct {
	// Label — фильтр по метке подписки; пустой — без фильтрации.
	Label string
	// N — статей на ленту.
	N int
	// Page — 1-базный номер страницы.
	Page int
	// Limit — размер страницы.
	Limit int
}

// normalize подставляет дефолты конфига вместо неположительных значений.
func (s *Service) normalize(p Params) Params {
	if p.N < 1 {
		p.N = s.cfg.Aggregator.DefaultN
	}

	if p.Page < 1 {
		p.Page = 1
	}

	if p.Limit < 1 {
		p.Limit = s.cfg.Aggregator.DefaultLimit
	}

	return p
}

// NumericFeedID срезает необязательный префикс "feed/" и проверяет,
// что остаток — непустая последовательность десятичных цифр.
// Только такой идентификатор пригоден для stream/contents/feed/{id}.
func NumericFeedID(id string) (string, bool) {
	id = strings.TrimPrefix(id, "feed/")
	if id == "" {
		return "", false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	return id, true
}
