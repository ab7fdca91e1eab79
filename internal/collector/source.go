package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

// Source implements ports.ItemSource by fanning a request out to every
// registered collector. A category only fails when all collectors fail.
type Source struct {
	registry *Registry
	logger   *slog.Logger
}

var _ ports.ItemSource = (*Source)(nil)

// NewSource wires the collector registry.
func NewSource(reg *Registry, log *slog.Logger) *Source {
	return &Source{registry: reg, logger: log}
}

// FetchItems asks all collectors concurrently and merges their findings in
// registration order. When every collector fails the errors are joined.
func (s *Source) FetchItems(ctx context.Context, req ports.CollectRequest) ([]domain.CollectedItem, error) {
	if s.registry == nil || s.registry.Len() == 0 {
		return nil, fmt.Errorf("no collectors are configured")
	}

	names := s.registry.Names()
	results := make([][]domain.CollectedItem, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		c, err := s.registry.Resolve(name)
		if err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			items, err := c.Collect(ctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("collector %s: %w", name, err)
				s.warn("collector failed", "collector", name, "category", req.Category.ID, "error", err)
				return nil
			}
			s.debug("collector produced items", "collector", name, "category", req.Category.ID, "count", len(items))
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var (
		aggregated []domain.CollectedItem
		succeeded  int
		seen       = map[string]bool{}
	)
	for i := range names {
		if errs[i] != nil {
			continue
		}
		succeeded++
		for _, item := range results[i] {
			key := dedupKey(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			aggregated = append(aggregated, item)
		}
	}

	if succeeded == 0 {
		return nil, errors.Join(errs...)
	}

	s.debug("collector source done", "category", req.Category.ID, "collectors", succeeded, "total_items", len(aggregated))
	return aggregated, nil
}

// dedupKey treats findings from one collector with the same URL or title as duplicates.
func dedupKey(item domain.CollectedItem) string {
	ref := strings.ToLower(strings.TrimSpace(item.URL))
	if ref == "" {
		ref = strings.ToLower(strings.TrimSpace(item.Title))
	}
	return item.CollectorSource + "|" + ref
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Source) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
