package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/internal/reader"
	"github.com/pribylovaa/go-digest-proxy/pkg/log"
)

// target — подписка, прошедшая проверку идентификатора.
type target struct {
	sub       models.Subscription
	numericID string
}

// fetchResult — исход загрузки одной ленты.
// idx сохраняет позицию ленты во входном батче: порядок завершения
// горутин не влияет на порядок выдачи.
type fetchResult struct {
	idx   int
	items []models.Item
	err   error
}

// directory загружает список подписок (без ретраев: его отказ валит
// всю агрегацию) и применяет фильтр по метке.
func (s *Service) directory(ctx context.Context, label string) ([]models.Subscription, error) {
	const op = "service.fanout.directory"

	subs, err := s.client.Subscriptions(ctx)
	if err != nil {
		log.From(ctx).Error("directory_fetch_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)

		if errors.Is(err, reader.ErrDecode) {
			return nil, fmt.Errorf("%s: %w", op, ErrDirectoryDecode)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrDirectoryUnavailable)
	}

	if label == "" {
		return subs, nil
	}

	filtered := subs[:0:0]
	for _, sub := range subs {
		for _, c := range sub.Categories {
			if c.Label == label {
				filtered = append(filtered, sub)
				break
			}
		}
	}

	return filtered, nil
}

// validTargets исключает подписки с отсутствующим или невалидным id.
// Исключение — не ошибка: лента просто не участвует в выдаче.
func (s *Service) validTargets(ctx context.Context, subs []models.Subscription) []target {
	const op = "service.fanout.validTargets"

	targets := make([]target, 0, len(subs))
	for _, sub := range subs {
		id, ok := NumericFeedID(sub.ID)
		if !ok {
			log.From(ctx).Warn("invalid_feed_id_skipped",
				slog.String("op", op),
				slog.String("feed_id", sub.ID),
				slog.String("title", sub.Title),
			)
			continue
		}

		targets = append(targets, target{sub: sub, numericID: id})
	}

	return targets
}

// fetchAll конкурентно загружает все ленты батча и возвращает результаты
// в порядке входного батча. Горутины ограничены семафором
// min(cfg.MaxConcurrent, len(targets)); вызов блокируется до завершения
// всех загрузок (join, не гонка до первого).
func (s *Service) fetchAll(ctx context.Context, targets []target, n int) []fetchResult {
	if len(targets) == 0 {
		return nil
	}

	bound := s.cfg.Aggregator.MaxConcurrent
	if bound < 1 {
		bound = 10
	}

	if len(targets) < bound {
		bound = len(targets)
	}

	output := make(chan fetchResult)

	go func() {
		sem := make(chan struct{}, bound)

		for i, tg := range targets {
			i, tg := i, tg
			sem <- struct{}{}

			go func() {
				defer func() {
					<-sem
				}()

				items, err := s.fetchWithRetry(ctx, tg.numericID, n)

				output <- fetchResult{idx: i, items: items, err: err}
			}()
		}
	}()

	results := make([]fetchResult, len(targets))
	for range targets {
		r := <-output
		results[r.idx] = r
	}

	return results
}

// fetchWithRetry — загрузка одной ленты с ограниченным числом повторов.
// Повторяем немедленно (без бэкоффа) таймаут, транспортную ошибку и
// ошибку декодирования; после последней попытки возвращаем
// классифицированную ошибку-значение, не роняя батч.
func (s *Service) fetchWithRetry(ctx context.Context, numericID string, n int) ([]models.Item, error) {
	const op = "service.fanout.fetchWithRetry"

	attempts := s.cfg.Aggregator.RetryAttempts
	if attempts < 0 {
		attempts = 0
	}

	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		items, err := s.client.StreamContents(ctx, numericID, n)
		if err == nil {
			return items, nil
		}

		lastErr = err
		log.From(ctx).Warn("feed_fetch_attempt_failed",
			slog.String("op", op),
			slog.String("feed_id", numericID),
			slog.Int("attempt", attempt+1),
			slog.String("err", err.Error()),
		)
	}

	if errors.Is(lastErr, reader.ErrTimeout) {
		return nil, errors.New("timeout after retries")
	}

	return nil, lastErr
}
