package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

type stubCollector struct {
	name  string
	items []domain.CollectedItem
	err   error
}

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Collect(context.Context, ports.CollectRequest) ([]domain.CollectedItem, error) {
	return s.items, s.err
}

func item(source, title, url string) domain.CollectedItem {
	return domain.CollectedItem{CollectorSource: source, Title: title, URL: url, Rating: 5, Reliability: 0.5}
}

func request() ports.CollectRequest {
	cat, _ := domain.CategoryByID(3)
	return ports.CollectRequest{Subject: domain.Subject{PoliticianID: "p-1", PoliticianName: "Han"}, Category: cat}
}

func TestSourceMergesCollectors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "b", items: []domain.CollectedItem{item("b", "x", "https://a/1")}})
	reg.Register(stubCollector{name: "a", items: []domain.CollectedItem{
		item("a", "x", "https://a/1"),
		item("a", "dup", "https://A/1"),
		item("a", "y", ""),
	}})

	items, err := NewSource(reg, nil).FetchItems(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].CollectorSource, "collectors merge in registration order")
	assert.Equal(t, "a", items[1].CollectorSource, "same URL from another collector is kept")
	assert.Equal(t, "y", items[2].Title)
}

func TestSourceToleratesPartialFailure(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "down", err: &domain.ProviderError{Provider: "down", StatusCode: 500}})
	reg.Register(stubCollector{name: "up", items: []domain.CollectedItem{item("up", "t", "")}})

	items, err := NewSource(reg, nil).FetchItems(context.Background(), request())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSourceFailsWhenAllCollectorsFail(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "one", err: &domain.ProviderError{Provider: "one", StatusCode: 503}})
	reg.Register(stubCollector{name: "two", err: &domain.ParseError{Provider: "two", Raw: "nope"}})

	_, err := NewSource(reg, nil).FetchItems(context.Background(), request())
	require.Error(t, err)

	var provErr *domain.ProviderError
	assert.True(t, errors.As(err, &provErr))
	assert.Contains(t, err.Error(), "collector two")
}

func TestSourceWithoutCollectors(t *testing.T) {
	t.Parallel()

	_, err := NewSource(NewRegistry(), nil).FetchItems(context.Background(), request())
	require.Error(t, err)
}

func TestSourceEmptyAnswersAreNotFailures(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "quiet"})

	items, err := NewSource(reg, nil).FetchItems(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "openai"})
	reg.Register(stubCollector{name: "anthropic"})
	reg.Register(stubCollector{name: "openai"})

	_, err := reg.Resolve("openai")
	require.NoError(t, err)
	_, err = reg.Resolve("missing")
	require.Error(t, err)
	assert.Equal(t, []string{"openai", "anthropic"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
}
