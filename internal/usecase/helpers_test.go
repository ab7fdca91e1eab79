package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
)

var testSubject = domain.Subject{PoliticianID: "p-7", PoliticianName: "Lee Ji-eun"}

type fakeEvaluator struct {
	cat     domain.Category
	score   float64
	ratings []int
	err     error
	panics  bool
	before  func()
	calls   atomic.Int32
}

func (f *fakeEvaluator) Category() domain.Category { return f.cat }

func (f *fakeEvaluator) Evaluate(_ context.Context, subject domain.Subject) domain.CategoryResult {
	f.calls.Add(1)
	if f.before != nil {
		f.before()
	}
	if f.panics {
		panic("evaluator exploded")
	}
	if f.err != nil {
		return domain.FailedResult(f.cat.ID, f.err)
	}

	ratings := f.ratings
	if len(ratings) == 0 {
		ratings = []int{7}
	}
	dist := map[int]int{}
	items := make([]domain.CollectedItem, 0, len(ratings))
	official := 0
	for i, r := range ratings {
		dist[r]++
		dt := domain.DataTypePublic
		if i%2 == 0 {
			dt = domain.DataTypeOfficial
			official++
		}
		items = append(items, domain.CollectedItem{
			PoliticianID: subject.PoliticianID,
			Category:     f.cat.ID,
			Title:        fmt.Sprintf("finding %d", i),
			Rating:       r,
			DataType:     dt,
		})
	}

	return domain.ScoredResult(domain.CategoryScore{
		PoliticianID:       subject.PoliticianID,
		CategoryNum:        f.cat.ID,
		CategoryName:       f.cat.Name,
		Score:              f.score,
		RatingDistribution: dist,
		ItemCount:          len(items),
		OfficialCount:      official,
		PublicCount:        len(items) - official,
	}, items)
}

func fakeRegistry(t *testing.T, configure func(id int, f *fakeEvaluator)) (*evaluator.Registry, map[int]*fakeEvaluator) {
	t.Helper()
	reg := evaluator.NewRegistry()
	fakes := map[int]*fakeEvaluator{}
	for _, cat := range domain.Categories() {
		f := &fakeEvaluator{cat: cat, score: float64(cat.ID * 10)}
		if configure != nil {
			configure(cat.ID, f)
		}
		fakes[cat.ID] = f
		reg.Register(f)
	}
	return reg, fakes
}

func newTestDispatcher(t *testing.T, reg *evaluator.Registry) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(reg, DispatcherOptions{})
	require.NoError(t, err)
	return d
}

type memoryScores struct {
	mu         sync.Mutex
	categories map[string]domain.CategoryScore
	finals     map[string]domain.FinalScore
	writes     int
	failFinal  error
}

func newMemoryScores() *memoryScores {
	return &memoryScores{categories: map[string]domain.CategoryScore{}, finals: map[string]domain.FinalScore{}}
}

func (m *memoryScores) UpsertCategoryScore(_ context.Context, s domain.CategoryScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.categories[fmt.Sprintf("%s/%d", s.PoliticianID, s.CategoryNum)] = s
	return nil
}

func (m *memoryScores) UpsertFinalScore(_ context.Context, s domain.FinalScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFinal != nil {
		return m.failFinal
	}
	m.writes++
	m.finals[s.PoliticianID] = s
	return nil
}

type memoryArtifacts struct {
	mu    sync.Mutex
	files map[string]any
	order []string
	err   error
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{files: map[string]any{}}
}

func (m *memoryArtifacts) Write(name string, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	final := name
	for n := 2; ; n++ {
		if _, exists := m.files[final]; !exists {
			break
		}
		final = fmt.Sprintf("%s_%d", name, n)
	}
	m.files[final] = payload
	m.order = append(m.order, final)
	return "mem://" + final, nil
}

// steppingClock advances one second per call so artifact names differ.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
