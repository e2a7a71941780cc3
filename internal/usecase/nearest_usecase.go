package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
	"github.com/nearest-locations/internal/pkg/utils"
	"github.com/nearest-locations/internal/usecase/dto"
)

// NearestUseCase - поиск через внешний эндпоинт, который ранжирует сам.
// Элементы отдаются в полученном порядке.
type NearestUseCase struct {
	nearestRepo  repository.NearestLocationsRepository
	cacheRepo    repository.CacheRepository
	defaultLimit int
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewNearestUseCase создает usecase
func NewNearestUseCase(
	nearestRepo repository.NearestLocationsRepository,
	cacheRepo repository.CacheRepository,
	defaultLimit int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *NearestUseCase {
	return &NearestUseCase{
		nearestRepo:  nearestRepo,
		cacheRepo:    cacheRepo,
		defaultLimit: defaultLimit,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Find выполняет запрос с кешированием по телу запроса
func (uc *NearestUseCase) Find(ctx context.Context, req dto.NearestRequest) (*dto.NearestResponse, error) {
	query := domain.NearestQuery{
		Q:     strings.TrimSpace(req.Query),
		Limit: req.Limit,
	}
	if query.Limit == 0 {
		query.Limit = uc.defaultLimit
	}
	if req.Lat != nil && req.Lng != nil {
		if !utils.ValidateCoordinates(*req.Lat, *req.Lng) {
			return nil, domain.ErrInvalidCoordinates
		}
		query.Q = ""
		query.Lat = req.Lat
		query.Lng = req.Lng
	} else if query.Q == "" {
		return nil, domain.ErrInvalidQuery
	}

	key, err := nearestCacheKey(query)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if data, err := uc.cacheRepo.Get(ctx, key); err != nil {
			uc.logger.Warn("Failed to read nearest cache", zap.String("key", key), zap.Error(err))
		} else if data != nil {
			var items []domain.NearestItem
			if err := json.Unmarshal(data, &items); err == nil {
				uc.logger.Debug("Nearest cache hit", zap.String("key", key))
				return &dto.NearestResponse{Items: items, Cached: true}, nil
			}
		}
	}

	items, err := uc.nearestRepo.Find(ctx, query)
	if err != nil {
		uc.logger.Error("Nearest locations request failed",
			zap.String("q", query.Q),
			zap.Int("limit", query.Limit),
			zap.Error(err))
		return nil, err
	}
	if items == nil {
		items = []domain.NearestItem{}
	}

	if uc.cacheRepo != nil {
		if data, err := json.Marshal(items); err == nil {
			if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to write nearest cache", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return &dto.NearestResponse{Items: items}, nil
}

func nearestCacheKey(q domain.NearestQuery) (string, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal nearest query: %w", err)
	}
	sum := sha1.Sum(payload)
	return "nearest:" + hex.EncodeToString(sum[:]), nil
}
