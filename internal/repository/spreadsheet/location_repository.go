package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/config"
	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/domain/repository"
)

// Колонки, которые попадают в DisplayFields; остальные уходят в Metadata
var headerAliases = map[string]string{
	"name":        "name",
	"title":       "name",
	"address":     "address",
	"book_url":    "book_url",
	"booking":     "book_url",
	"details_url": "details_url",
	"url":         "details_url",
	"image":       "image",
	"lat":         "lat",
	"latitude":    "lat",
	"lng":         "lng",
	"lon":         "lng",
	"longitude":   "lng",
}

type locationRepository struct {
	path   string
	sheet  string
	logger *zap.Logger
}

// NewLocationRepository читает локации из листа xlsx-файла.
// Первая строка листа - заголовок.
func NewLocationRepository(cfg *config.LocationsConfig, logger *zap.Logger) repository.LocationRepository {
	return &locationRepository{
		path:   cfg.XLSXPath,
		sheet:  cfg.XLSXSheet,
		logger: logger,
	}
}

func (r *locationRepository) LoadEntries(ctx context.Context) ([]domain.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}
	if len(rows) == 0 {
		r.logger.Warn("Locations sheet is empty", zap.String("sheet", r.sheet))
		return nil, nil
	}

	header := rows[0]
	columns := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[key]; ok {
			columns[i] = alias
		} else {
			columns[i] = key
		}
	}

	entries := make([]domain.RawEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		entry := domain.RawEntry{}
		for col, value := range row {
			if col >= len(columns) || columns[col] == "" {
				continue
			}
			assign(&entry, columns[col], strings.TrimSpace(value))
		}
		if entry.Display.Name == "" {
			r.logger.Warn("Location row without name",
				zap.String("sheet", r.sheet),
				zap.Int("row", i+2))
		}
		entries = append(entries, entry)
	}

	r.logger.Info("Locations loaded from spreadsheet",
		zap.String("path", r.path),
		zap.String("sheet", r.sheet),
		zap.Int("count", len(entries)))

	return entries, nil
}

func assign(entry *domain.RawEntry, column, value string) {
	switch column {
	case "name":
		entry.Display.Name = value
	case "address":
		entry.Display.Address = value
	case "book_url":
		entry.Display.BookURL = value
	case "details_url":
		entry.Display.DetailsURL = value
	case "image":
		entry.Display.Image = value
	case "lat":
		entry.Lat = value
	case "lng":
		entry.Lng = value
	default:
		if value == "" {
			return
		}
		if entry.Display.Metadata == nil {
			entry.Display.Metadata = make(map[string]string)
		}
		entry.Display.Metadata[column] = value
	}
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
