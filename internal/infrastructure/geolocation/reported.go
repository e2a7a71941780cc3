package geolocation

import (
	"context"
	"errors"
	"time"

	"github.com/nearest-locations/internal/domain"
)

// Коды ошибок, которые браузер присылает вместо позиции
const (
	CodeDenied      = "denied"
	CodeTimeout     = "timeout"
	CodeUnsupported = "unsupported"
)

// Reported - Geolocator поверх позиции, которую браузер уже определил и прислал.
// Позиция старше MaximumAge считается недоступной.
type Reported struct {
	coord      *domain.Coordinate
	code       string
	reportedAt time.Time
	now        func() time.Time
}

// NewReported создает Geolocator из присланной позиции или кода ошибки
func NewReported(coord *domain.Coordinate, code string, reportedAt time.Time) *Reported {
	return &Reported{
		coord:      coord,
		code:       code,
		reportedAt: reportedAt,
		now:        time.Now,
	}
}

// CurrentPosition возвращает присланную позицию или ошибку геолокации
func (r *Reported) CurrentPosition(ctx context.Context, opts domain.GeolocationOptions) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Coordinate{}, domain.ErrGeolocationTimeout
		}
		return domain.Coordinate{}, err
	}

	switch r.code {
	case CodeDenied:
		return domain.Coordinate{}, domain.ErrGeolocationDenied
	case CodeTimeout:
		return domain.Coordinate{}, domain.ErrGeolocationTimeout
	case CodeUnsupported:
		return domain.Coordinate{}, domain.ErrGeolocationUnsupported
	}

	if r.coord == nil {
		return domain.Coordinate{}, domain.ErrGeolocationUnsupported
	}
	if opts.MaximumAge > 0 && !r.reportedAt.IsZero() && r.now().Sub(r.reportedAt) > opts.MaximumAge {
		return domain.Coordinate{}, domain.ErrGeolocationTimeout
	}
	return *r.coord, nil
}
