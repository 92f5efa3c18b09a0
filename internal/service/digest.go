package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/pkg/log"
)

// Digest возвращает страницу плоского дайджеста: статьи всех лент,
// слитые в одну последовательность и отсортированные по убыванию
// Published.
//
// Ключ кэша — функция только (label, n): page/limit не влияют на
// вычисленную последовательность, лишь на срез после неё. Отказ
// отдельной ленты поглощается (ноль статей), отказ каталога подписок
// валит запрос целиком.
func (s *Service) Digest(ctx context.Context, p Params) (*models.DigestResponse, error) {
	const op = "service.digest.Digest"

	p = s.normalize(p)
	key := fmt.Sprintf("digest:%s:%d", p.Label, p.N)

	lg := log.From(ctx)

	if v, ok := s.cache.Get(key); ok {
		if merged, ok := v.([]models.Item); ok {
			lg.Info("digest_cache_hit",
				slog.String("op", op),
				slog.String("key", key),
				slog.Int("total_items", len(merged)),
			)

			return digestPage(merged, p), nil
		}
	}

	subs, err := s.directory(ctx, p.Label)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	targets := s.validTargets(ctx, subs)
	results := s.fetchAll(ctx, targets, p.N)

	var feedsErr int
	merged := make([]models.Item, 0, len(targets)*p.N)

	for _, r := range results {
		if r.err != nil {
			// Плоский режим молча опускает отказавшую ленту.
			feedsErr++
			continue
		}

		sub := targets[r.idx].sub
		for _, item := range r.items {
			item.FeedID = sub.ID
			item.FeedTitle = sub.Title
			item.FeedHTMLURL = sub.HTMLURL
			item.FeedIconURL = sub.IconURL
			merged = append(merged, item)
		}
	}

	// Stable: при равном Published сохраняется исходный относительный порядок.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Published > merged[j].Published
	})

	s.cache.Set(key, merged)

	lg.Info("digest_computed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Int("feeds", len(targets)),
		slog.Int("feeds_err", feedsErr),
		slog.Int("total_items", len(merged)),
	)

	return digestPage(merged, p), nil
}

// digestPage применяет оффсетную пагинацию к полной последовательности.
func digestPage(merged []models.Item, p Params) *models.DigestResponse {
	offset := (p.Page - 1) * p.Limit
	if offset < 0 {
		offset = 0
	}

	page := []models.Item{}
	if offset < len(merged) {
		end := offset + p.Limit
		if end > len(merged) {
			end = len(merged)
		}
		page = merged[offset:end]
	}

	return &models.DigestResponse{
		Items:      page,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: len(merged),
	}
}
