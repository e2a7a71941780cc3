package domain

import "errors"

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidQuery       = errors.New("empty search query")

	// ErrGeocodeNotFound - запрос не удалось превратить в координату
	ErrGeocodeNotFound = errors.New("geocode not found")

	ErrGeolocationDenied      = errors.New("geolocation permission denied")
	ErrGeolocationTimeout     = errors.New("geolocation timed out")
	ErrGeolocationUnsupported = errors.New("geolocation not supported")

	// ErrOutsideRegion - точка вне разрешенной страны поиска
	ErrOutsideRegion = errors.New("location outside of supported region")

	ErrCandidateNotFound = errors.New("candidate not found")
	ErrSessionNotFound   = errors.New("session not found")
)

// IsGeolocationFailure сообщает, относится ли ошибка к отказу геолокации
func IsGeolocationFailure(err error) bool {
	return errors.Is(err, ErrGeolocationDenied) ||
		errors.Is(err, ErrGeolocationTimeout) ||
		errors.Is(err, ErrGeolocationUnsupported)
}
