package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
)

type locationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewLocationRepository(db *DB) repository.LocationRepository {
	return &locationRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type locationRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Address    string `db:"address"`
	BookURL    string `db:"book_url"`
	DetailsURL string `db:"details_url"`
	Image      string `db:"image"`
	Lat        string `db:"lat"`
	Lng        string `db:"lng"`
	Metadata   []byte `db:"metadata"`
}

// LoadEntries возвращает активные локации в порядке sort_order, id.
// Координаты остаются строками: разбор делает реестр.
func (r *locationRepository) LoadEntries(ctx context.Context) ([]domain.RawEntry, error) {
	query := `
		SELECT
			id, name,
			COALESCE(address, '') AS address,
			COALESCE(book_url, '') AS book_url,
			COALESCE(details_url, '') AS details_url,
			COALESCE(image, '') AS image,
			COALESCE(lat, '') AS lat,
			COALESCE(lng, '') AS lng,
			metadata
		FROM locations
		WHERE active
		ORDER BY sort_order, id
	`

	var rows []locationRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to load locations", zap.Error(err))
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	entries := make([]domain.RawEntry, 0, len(rows))
	for _, row := range rows {
		display := domain.DisplayFields{
			Name:       row.Name,
			Address:    row.Address,
			BookURL:    row.BookURL,
			DetailsURL: row.DetailsURL,
			Image:      row.Image,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &display.Metadata); err != nil {
				r.logger.Warn("Invalid location metadata, ignored",
					zap.Int64("id", row.ID),
					zap.Error(err))
			}
		}
		entries = append(entries, domain.RawEntry{Lat: row.Lat, Lng: row.Lng, Display: display})
	}

	r.logger.Info("Locations loaded from PostgreSQL", zap.Int("count", len(entries)))
	return entries, nil
}
