package ranking_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/pkg/utils"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/worker/ranking"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

type lineProvider struct {
	fail bool
}

func (p lineProvider) MaxDestinations() int { return 25 }

func (p lineProvider) GetDistances(_ context.Context, origin domain.Coordinate, dests []domain.Coordinate) ([]domain.DistanceElement, error) {
	if p.fail {
		return nil, errors.New("REQUEST_DENIED")
	}
	out := make([]domain.DistanceElement, len(dests))
	for i, d := range dests {
		out[i] = domain.DistanceElement{
			Status:         domain.ElementOK,
			DistanceMeters: utils.HaversineMeters(origin, d),
			DistanceText:   "x mi",
		}
	}
	return out, nil
}

type mapGeocoder map[string]domain.Coordinate

func (g mapGeocoder) Geocode(_ context.Context, q string) (domain.Coordinate, error) {
	if c, ok := g[q]; ok {
		return c, nil
	}
	return domain.Coordinate{}, domain.ErrGeocodeNotFound
}

func newWorker(stream *MockStreamRepository, provider lineProvider) *ranking.RankingWorker {
	log := zap.NewNop()
	catalog := usecase.BuildRegistry([]domain.RawEntry{
		{Lat: "10", Lng: "0", Display: domain.DisplayFields{Name: "far"}},
		{Lat: "1", Lng: "0", Display: domain.DisplayFields{Name: "near"}},
		{Lat: "5", Lng: "0", Display: domain.DisplayFields{Name: "mid"}},
	}, log)
	ranker := usecase.NewDistanceRanker(provider, usecase.RankerConfig{
		BatchSize:            25,
		MaxConcurrentBatches: 1,
		BatchTimeout:         time.Second,
	}, log)
	return ranking.NewRankingWorker(stream, catalog, ranker,
		mapGeocoder{"origin": {Lat: 0, Lng: 0}}, "test-group", 2, log)
}

func message(t *testing.T, id string, event domain.RankRequestEvent) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Stream: domain.StreamNearestRank, Data: map[string]interface{}{"data": string(data)}}
}

func ptr[T any](v T) *T { return &v }

func TestRankingWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, lineProvider{})
	assert.Equal(t, "nearest-ranking", w.Name())
	assert.Equal(t, "test-group", w.ConsumerGroup())
}

func TestRankingWorker_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}

	byQuery := domain.RankRequestEvent{RequestID: uuid.New(), Query: ptr("origin")}
	byPoint := domain.RankRequestEvent{RequestID: uuid.New(), Lat: ptr(6.0), Lng: ptr(0.0), Limit: 1}
	unknown := domain.RankRequestEvent{RequestID: uuid.New(), Query: ptr("nowhere")}

	messages := []domain.StreamMessage{
		message(t, "1-0", byQuery),
		{ID: "2-0", Data: map[string]interface{}{"data": "{broken"}},
		message(t, "3-0", byPoint),
		message(t, "4-0", unknown),
	}

	stream.On("ConsumeBatch", ctx, domain.StreamNearestRank, "test-group", mock.Anything, 20).Return(messages, nil)
	stream.On("AckMessage", ctx, domain.StreamNearestRank, "test-group", "2-0").Return(nil)

	var published []*domain.RankDoneEvent
	stream.On("PublishToStream", ctx, domain.StreamNearestRanked, mock.Anything).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(2).(*domain.RankDoneEvent))
		}).Return(nil)
	stream.On("AckMessages", ctx, domain.StreamNearestRank, "test-group", []string{"1-0", "3-0", "4-0"}).Return(nil)

	w := newWorker(stream, lineProvider{})
	n, err := w.ProcessBatch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, published, 3)

	first := published[0]
	assert.Equal(t, byQuery.RequestID, first.RequestID)
	assert.Empty(t, first.Error)
	require.Len(t, first.Items, 2, "default limit")
	assert.Equal(t, "near", first.Items[0].Display.Name)
	assert.Equal(t, 1, first.Items[0].Rank)
	assert.Equal(t, "mid", first.Items[1].Display.Name)

	second := published[1]
	require.Len(t, second.Items, 1)
	assert.Equal(t, "mid", second.Items[0].Display.Name)
	require.NotNil(t, second.Origin)
	assert.Equal(t, 6.0, second.Origin.Lat)

	third := published[2]
	assert.Equal(t, unknown.RequestID, third.RequestID)
	assert.NotEmpty(t, third.Error)
	assert.Empty(t, third.Items)

	stream.AssertExpectations(t)
}

func TestRankingWorker_AllBatchesFailed(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}

	event := domain.RankRequestEvent{RequestID: uuid.New(), Lat: ptr(0.0), Lng: ptr(0.0)}
	stream.On("ConsumeBatch", ctx, domain.StreamNearestRank, "test-group", mock.Anything, 20).
		Return([]domain.StreamMessage{message(t, "1-0", event)}, nil)
	stream.On("PublishToStream", ctx, domain.StreamNearestRanked,
		mock.MatchedBy(func(e *domain.RankDoneEvent) bool {
			return e.RequestID == event.RequestID && e.Error == "Search failed" && len(e.Items) == 0
		})).Return(nil)
	stream.On("AckMessages", ctx, domain.StreamNearestRank, "test-group", []string{"1-0"}).Return(nil)

	w := newWorker(stream, lineProvider{fail: true})
	_, err := w.ProcessBatch(ctx)

	require.NoError(t, err)
	stream.AssertExpectations(t)
}

func TestRankingWorker_PublishFailureSkipsAck(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}

	event := domain.RankRequestEvent{RequestID: uuid.New(), Lat: ptr(0.0), Lng: ptr(0.0)}
	stream.On("ConsumeBatch", ctx, domain.StreamNearestRank, "test-group", mock.Anything, 20).
		Return([]domain.StreamMessage{message(t, "1-0", event)}, nil)
	stream.On("PublishToStream", ctx, domain.StreamNearestRanked, mock.Anything).Return(errors.New("redis down"))

	w := newWorker(stream, lineProvider{})
	n, err := w.ProcessBatch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stream.AssertNotCalled(t, "AckMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRankingWorker_EmptyQueueAndConsumeError(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		stream := &MockStreamRepository{}
		stream.On("ConsumeBatch", ctx, mock.Anything, mock.Anything, mock.Anything, 20).Return(nil, nil)

		n, err := newWorker(stream, lineProvider{}).ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("error", func(t *testing.T) {
		stream := &MockStreamRepository{}
		stream.On("ConsumeBatch", ctx, mock.Anything, mock.Anything, mock.Anything, 20).Return(nil, errors.New("NOGROUP"))

		_, err := newWorker(stream, lineProvider{}).ProcessBatch(ctx)
		assert.Error(t, err)
	})
}

func TestRankingWorker_StartStop(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamNearestRank, "test-group").Return(nil)
	stream.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 20).Return(nil, nil)

	w := newWorker(stream, lineProvider{})

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, w.IsStopped())
}

func TestRankingWorker_ConsumerGroupError(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamNearestRank, "test-group").Return(errors.New("no redis"))

	err := newWorker(stream, lineProvider{}).Start(context.Background())
	assert.Error(t, err)
}
