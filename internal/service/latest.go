package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/pkg/log"
)

// Latest возвращает сгруппированный по лентам срез свежих статей.
//
// В отличие от дайджеста, пагинация здесь выбирает, какие ленты
// загружать, а не какие статьи отдавать: срез списка лент выполняется
// до фан-аута, поэтому ключ кэша — функция полного кортежа
// (label, page, limit, n), а закэшированный ответ отдаётся на хите
// без дополнительной нарезки.
func (s *Service) Latest(ctx context.Context, p Params) (*models.LatestResponse, error) {
	const op = "service.latest.Latest"

	p = s.normalize(p)
	key := fmt.Sprintf("latest:%s:%d:%d:%d", p.Label, p.Page, p.Limit, p.N)

	lg := log.From(ctx)

	if v, ok := s.cache.Get(key); ok {
		if resp, ok := v.(*models.LatestResponse); ok {
			lg.Info("latest_cache_hit",
				slog.String("op", op),
				slog.String("key", key),
				slog.Int("feeds", len(resp.Feeds)),
			)

			return resp, nil
		}
	}

	subs, err := s.directory(ctx, p.Label)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Невалидные id исключаются до пагинации, чтобы страницы лент
	// оставались полными и исключённые ленты нигде не появлялись.
	targets := s.validTargets(ctx, subs)
	totalFeeds := len(targets)

	offset := (p.Page - 1) * p.Limit
	if offset < 0 {
		offset = 0
	}

	pageTargets := []target{}
	if offset < len(targets) {
		end := offset + p.Limit
		if end > len(targets) {
			end = len(targets)
		}
		pageTargets = targets[offset:end]
	}

	results := s.fetchAll(ctx, pageTargets, p.N)

	var feedsErr int
	feeds := make([]models.FeedResult, len(pageTargets))

	for _, r := range results {
		sub := pageTargets[r.idx].sub
		fr := models.FeedResult{
			ID:      sub.ID,
			Title:   sub.Title,
			HTMLURL: sub.HTMLURL,
			IconURL: sub.IconURL,
			Items:   []models.Item{},
		}

		if r.err != nil {
			// Сгруппированный режим показывает отказ как данные.
			feedsErr++
			fr.Error = r.err.Error()
		} else {
			fr.Items = r.items
		}

		feeds[r.idx] = fr
	}

	resp := &models.LatestResponse{
		Feeds:      feeds,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalFeeds: totalFeeds,
	}

	s.cache.Set(key, resp)

	lg.Info("latest_computed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Int("total_feeds", totalFeeds),
		slog.Int("page_feeds", len(pageTargets)),
		slog.Int("feeds_err", feedsErr),
	)

	return resp, nil
}
