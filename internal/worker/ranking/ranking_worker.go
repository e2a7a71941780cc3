package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/worker"
)

const (
	maxBatchSize    = 20                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep      = time.Second
)

// Geocoder - геокодирование текстового запроса
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
}

// RankingWorker ранжирует локации по запросам из stream:nearest:rank
// и публикует результат в stream:nearest:ranked
type RankingWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	catalog      *usecase.LocationRegistry
	ranker       usecase.Ranker
	geocoder     Geocoder
	defaultLimit int
	consumerName string
}

// NewRankingWorker создает новый RankingWorker
func NewRankingWorker(
	streamRepo repository.StreamRepository,
	catalog *usecase.LocationRegistry,
	ranker usecase.Ranker,
	geocoder Geocoder,
	consumerGroup string,
	defaultLimit int,
	logger *zap.Logger,
) *RankingWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if defaultLimit <= 0 {
		defaultLimit = 3
	}

	return &RankingWorker{
		BaseWorker:   worker.NewBaseWorker("nearest-ranking", consumerGroup, logger),
		streamRepo:   streamRepo,
		catalog:      catalog,
		ranker:       ranker,
		geocoder:     geocoder,
		defaultLimit: defaultLimit,
		consumerName: consumerName,
	}
}

// Start запускает воркер
func (w *RankingWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RankingWorker (batch mode)",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize),
		zap.Int("locations", w.catalog.Len()))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamNearestRank, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.ProcessBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.sleep(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.sleep(ctx, emptyQueueSleep)
			}
		}
	}
}

func (w *RankingWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-w.StopChan():
	}
}

// ProcessBatch читает и обрабатывает пачку запросов.
// Возвращает количество прочитанных сообщений.
func (w *RankingWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamNearestRank,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	processedIDs := make([]string, 0, len(messages))
	failed := 0
	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK битое сообщение чтобы не застревало
			_ = w.streamRepo.AckMessage(ctx, domain.StreamNearestRank, w.ConsumerGroup(), msg.ID)
			continue
		}

		done := w.rank(ctx, event)
		if done.Error != "" {
			failed++
		}

		if err := w.streamRepo.PublishToStream(ctx, domain.StreamNearestRanked, done); err != nil {
			logger.Error("Failed to publish ranked event",
				zap.String("request_id", event.RequestID.String()),
				zap.Error(err))
			// без ACK сообщение будет переобработано
			continue
		}
		processedIDs = append(processedIDs, msg.ID)
	}

	if len(processedIDs) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamNearestRank, w.ConsumerGroup(), processedIDs); err != nil {
			logger.Error("Failed to ack messages", zap.Error(err))
		}
	}

	logger.Info("Batch processed",
		zap.Int("processed", len(processedIDs)),
		zap.Int("errors", failed))

	return len(messages), nil
}

// rank считает результат для одного запроса; ошибки попадают в событие
func (w *RankingWorker) rank(ctx context.Context, event *domain.RankRequestEvent) *domain.RankDoneEvent {
	done := &domain.RankDoneEvent{RequestID: event.RequestID}

	origin, err := w.resolveOrigin(ctx, event)
	if err != nil {
		w.Logger().Info("Rank request origin not resolved",
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err))
		done.Error = err.Error()
		return done
	}
	done.Origin = &origin

	result := w.ranker.Rank(ctx, origin, w.catalog.Clone())
	if result.Batches > 0 && result.Reachable == 0 {
		done.Error = "Search failed"
		return done
	}

	limit := event.Limit
	if limit <= 0 {
		limit = w.defaultLimit
	}
	if limit > len(result.Ordered) {
		limit = len(result.Ordered)
	}

	done.Items = make([]domain.RankedLocation, limit)
	for i, c := range result.Ordered[:limit] {
		done.Items[i] = domain.RankedLocation{
			ID:             c.ID,
			Rank:           i + 1,
			Display:        c.Display,
			DistanceMeters: c.DistanceMeters,
			DistanceText:   c.DistanceText,
			DurationText:   c.DurationText,
		}
	}
	return done
}

func (w *RankingWorker) resolveOrigin(ctx context.Context, event *domain.RankRequestEvent) (domain.Coordinate, error) {
	if event.HasCoordinates() {
		return domain.NewCoordinate(*event.Lat, *event.Lng)
	}
	if event.HasQuery() {
		return w.geocoder.Geocode(ctx, *event.Query)
	}
	return domain.Coordinate{}, domain.ErrInvalidQuery
}

// parseMessage парсит сообщение из стрима в RankRequestEvent
func parseMessage(msg domain.StreamMessage) (*domain.RankRequestEvent, error) {
	data, ok := msg.Data["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var event domain.RankRequestEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}
