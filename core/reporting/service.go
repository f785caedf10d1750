package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"kosyak-bot/core/store"
)

const (
	cacheSize = 128
	cacheTTL  = 5 * time.Minute
)

// Service serves aggregate reports over the mistake log. Results are cached
// with a short TTL; every write path must call Invalidate so menu-driven
// reports never show stale totals right after a change.
type Service struct {
	stats    store.StatsStore
	mistakes store.MistakesStore
	cache    *expirable.LRU[string, any]
}

func NewService(stats store.StatsStore, mistakes store.MistakesStore) *Service {
	return &Service{
		stats:    stats,
		mistakes: mistakes,
		cache:    expirable.NewLRU[string, any](cacheSize, nil, cacheTTL),
	}
}

// Invalidate drops every cached report.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Add(key, v)
	return v, nil
}

func (s *Service) HasAnyData(ctx context.Context) (bool, error) {
	return cached(s, "has_any_data", func() (bool, error) {
		return s.mistakes.HasAnyData(ctx)
	})
}

func (s *Service) UserStats(ctx context.Context) ([]store.UserStat, error) {
	return cached(s, "user_stats", func() ([]store.UserStat, error) {
		return s.stats.UserStats(ctx)
	})
}

func (s *Service) UserMonthlyStats(ctx context.Context, user string) ([]store.MonthlyUserStat, error) {
	return cached(s, "user_monthly:"+user, func() ([]store.MonthlyUserStat, error) {
		return s.stats.UserMonthlyStats(ctx, user)
	})
}

func (s *Service) PriorityStats(ctx context.Context) ([]store.PriorityStat, error) {
	return cached(s, "priority_stats", func() ([]store.PriorityStat, error) {
		return s.stats.PriorityStats(ctx)
	})
}

func (s *Service) StatusStats(ctx context.Context) (store.StatusStat, error) {
	return cached(s, "status_stats", func() (store.StatusStat, error) {
		return s.stats.StatusStats(ctx)
	})
}

func (s *Service) PeriodStats(ctx context.Context, days int) (*store.PeriodStat, error) {
	return cached(s, fmt.Sprintf("period_stats:%d", days), func() (*store.PeriodStat, error) {
		return s.stats.PeriodStats(ctx, days)
	})
}

func (s *Service) WeekMistakes(ctx context.Context, ref time.Time) ([]store.Mistake, error) {
	return cached(s, "week:"+ref.UTC().Format("2006-01-02"), func() ([]store.Mistake, error) {
		return s.stats.WeekMistakes(ctx, ref)
	})
}

func (s *Service) MonthMistakes(ctx context.Context, year int, month time.Month) ([]store.Mistake, error) {
	return cached(s, fmt.Sprintf("month:%d-%02d", year, int(month)), func() ([]store.Mistake, error) {
		return s.stats.MonthMistakes(ctx, year, month)
	})
}
