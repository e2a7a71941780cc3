package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Session not found",
		http.StatusNotFound,
	)

	ErrCandidateNotFound = New(
		"LOCATION_NOT_FOUND",
		"Location not found",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidQuery = New(
		"INVALID_QUERY",
		"Search query is empty",
		http.StatusBadRequest,
	)

	ErrGeocodeFailed = New(
		"GEOCODE_FAILED",
		"Query could not be resolved to a location",
		http.StatusUnprocessableEntity,
	)

	ErrOutsideRegion = New(
		"OUTSIDE_REGION",
		"Location is outside of the supported region",
		http.StatusUnprocessableEntity,
	)

	ErrUpstream = New(
		"UPSTREAM_ERROR",
		"Search failed",
		http.StatusBadGateway,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
