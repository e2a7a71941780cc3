package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
)

// RankerConfig - параметры пакетной отправки в провайдер расстояний
type RankerConfig struct {
	BatchSize            int
	MaxConcurrentBatches int
	BatchTimeout         time.Duration
}

// RankResult - итог одного ранжирования
type RankResult struct {
	Ordered       []domain.Candidate
	Batches       int
	FailedBatches int
	Reachable     int
}

// DistanceRanker считает расстояния от origin до всех локаций и сортирует их
type DistanceRanker struct {
	provider repository.DistanceMatrixRepository
	cfg      RankerConfig
	logger   *zap.Logger
}

// NewDistanceRanker создает ранжировщик
func NewDistanceRanker(
	provider repository.DistanceMatrixRepository,
	cfg RankerConfig,
	logger *zap.Logger,
) *DistanceRanker {
	if cfg.MaxConcurrentBatches <= 0 {
		cfg.MaxConcurrentBatches = 1
	}
	return &DistanceRanker{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// batchSize - не больше лимита провайдера
func (r *DistanceRanker) batchSize() int {
	size := r.cfg.BatchSize
	if limit := r.provider.MaxDestinations(); limit > 0 && (size <= 0 || size > limit) {
		size = limit
	}
	if size <= 0 {
		size = 1
	}
	return size
}

// Rank записывает расстояния в reg и возвращает отсортированные копии.
// Ошибки провайдера не возвращаются: провалившиеся локации помечаются недостижимыми.
func (r *DistanceRanker) Rank(ctx context.Context, origin domain.Coordinate, reg *LocationRegistry) RankResult {
	routable := reg.Routable()
	batches := chunkCandidates(routable, r.batchSize())

	start := time.Now()
	var (
		mu     sync.Mutex
		failed int
	)

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.MaxConcurrentBatches)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := r.rankBatch(ctx, origin, batch, reg); err != nil {
				r.logger.Warn("Distance batch failed, marking candidates unreachable",
					zap.Int("batch", i),
					zap.Int("batch_size", len(batch)),
					zap.String("origin", origin.String()),
					zap.Error(err))

				for _, c := range batch {
					reg.MarkUnreachable(c.ID)
				}
				mu.Lock()
				failed++
				mu.Unlock()
			}
			// ошибка батча не отменяет остальные
			return nil
		})
	}
	_ = g.Wait()

	ordered := reg.SnapshotOrderedByRegistration()
	SortCandidates(ordered)

	reachable := 0
	for i := range ordered {
		if ordered[i].DistanceMeters != nil {
			reachable++
		}
	}

	r.logger.Debug("Ranking finished",
		zap.Int("candidates", len(ordered)),
		zap.Int("routable", len(routable)),
		zap.Int("batches", len(batches)),
		zap.Int("failed_batches", failed),
		zap.Int("reachable", reachable),
		zap.Duration("duration", time.Since(start)))

	return RankResult{
		Ordered:       ordered,
		Batches:       len(batches),
		FailedBatches: failed,
		Reachable:     reachable,
	}
}

func (r *DistanceRanker) rankBatch(
	ctx context.Context,
	origin domain.Coordinate,
	batch []domain.Candidate,
	reg *LocationRegistry,
) error {
	if r.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.BatchTimeout)
		defer cancel()
	}

	destinations := make([]domain.Coordinate, len(batch))
	for i, c := range batch {
		destinations[i] = *c.Coordinate
	}

	elements, err := r.provider.GetDistances(ctx, origin, destinations)
	if err != nil {
		return fmt.Errorf("get distances: %w", err)
	}

	for i, c := range batch {
		if i >= len(elements) || !elements[i].OK() {
			reg.MarkUnreachable(c.ID)
			continue
		}
		e := elements[i]
		reg.ApplyDistanceResult(c.ID, e.DistanceMeters, e.DistanceText, e.DurationText)
	}
	return nil
}

// SortCandidates - устойчивая сортировка по расстоянию; nil идет в конец,
// равные сохраняют порядок регистрации
func SortCandidates(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ki, kj := candidates[i].SortKey(), candidates[j].SortKey()
		if ki != kj {
			return ki < kj
		}
		return candidates[i].ID < candidates[j].ID
	})
}

func chunkCandidates(candidates []domain.Candidate, size int) [][]domain.Candidate {
	var out [][]domain.Candidate
	for start := 0; start < len(candidates); start += size {
		end := start + size
		if end > len(candidates) {
			end = len(candidates)
		}
		out = append(out, candidates[start:end])
	}
	return out
}
