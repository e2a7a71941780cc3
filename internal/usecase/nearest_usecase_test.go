package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	apperrors "github.com/nearest-locations/internal/pkg/errors"
	"github.com/nearest-locations/internal/usecase"
	"github.com/nearest-locations/internal/usecase/dto"
)

func TestNearestUseCase_Find(t *testing.T) {
	ctx := context.Background()
	ttl := 10 * time.Minute
	items := []domain.NearestItem{
		{Name: "West Hollywood", DistanceText: "2.1 mi", DurationText: "9 mins"},
		{Name: "Santa Monica", DistanceText: "6.4 mi", DurationText: "18 mins"},
	}

	t.Run("default limit and order preserved", func(t *testing.T) {
		repo := &MockNearestLocationsRepository{}
		cache := &MockCacheRepository{}
		repo.On("Find", ctx, domain.NearestQuery{Q: "90210", Limit: 3}).Return(items, nil).Once()
		cache.On("Get", ctx, mock.Anything).Return(nil, nil)
		cache.On("Set", ctx, mock.Anything, mock.Anything, ttl).Return(nil)

		uc := usecase.NewNearestUseCase(repo, cache, 3, ttl, zap.NewNop())
		resp, err := uc.Find(ctx, dto.NearestRequest{Query: " 90210 "})

		require.NoError(t, err)
		assert.Equal(t, items, resp.Items)
		assert.False(t, resp.Cached)
		repo.AssertExpectations(t)
	})

	t.Run("coordinates win over query", func(t *testing.T) {
		lat, lng := 34.09, -118.41
		repo := &MockNearestLocationsRepository{}
		repo.On("Find", ctx, mock.MatchedBy(func(q domain.NearestQuery) bool {
			return q.Q == "" && *q.Lat == lat && *q.Lng == lng && q.Limit == 5
		})).Return([]domain.NearestItem(nil), nil)

		uc := usecase.NewNearestUseCase(repo, nil, 3, ttl, zap.NewNop())
		resp, err := uc.Find(ctx, dto.NearestRequest{Query: "ignored", Lat: &lat, Lng: &lng, Limit: 5})

		require.NoError(t, err)
		assert.NotNil(t, resp.Items)
		assert.Empty(t, resp.Items)
	})

	t.Run("served from cache", func(t *testing.T) {
		data, _ := json.Marshal(items)
		repo := &MockNearestLocationsRepository{}
		cache := &MockCacheRepository{}
		cache.On("Get", ctx, mock.Anything).Return(data, nil)

		uc := usecase.NewNearestUseCase(repo, cache, 3, ttl, zap.NewNop())
		resp, err := uc.Find(ctx, dto.NearestRequest{Query: "90210"})

		require.NoError(t, err)
		assert.True(t, resp.Cached)
		assert.Equal(t, items, resp.Items)
		repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("upstream error passes through", func(t *testing.T) {
		repo := &MockNearestLocationsRepository{}
		repo.On("Find", ctx, mock.Anything).Return(nil, &apperrors.UpstreamError{StatusCode: 500, Message: "Search failed"})

		uc := usecase.NewNearestUseCase(repo, nil, 3, ttl, zap.NewNop())
		_, err := uc.Find(ctx, dto.NearestRequest{Query: "90210"})

		appErr := apperrors.FromDomain(err)
		assert.Equal(t, "UPSTREAM_ERROR", appErr.Code)
		assert.Equal(t, "Search failed", appErr.Message)
	})

	t.Run("empty request", func(t *testing.T) {
		uc := usecase.NewNearestUseCase(&MockNearestLocationsRepository{}, nil, 3, ttl, zap.NewNop())
		_, err := uc.Find(ctx, dto.NearestRequest{Query: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}
