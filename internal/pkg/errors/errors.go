package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/nearest-locations/internal/domain"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithDetails возвращает копию ошибки с деталями; общие значения не мутируются
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage возвращает копию ошибки с другим текстом
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// FromDomain переводит доменную ошибку в AppError
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, domain.ErrSessionNotFound):
		return ErrSessionNotFound
	case stdErrors.Is(err, domain.ErrCandidateNotFound):
		return ErrCandidateNotFound
	case stdErrors.Is(err, domain.ErrInvalidCoordinates):
		return ErrInvalidCoordinates
	case stdErrors.Is(err, domain.ErrInvalidQuery):
		return ErrInvalidQuery
	case stdErrors.Is(err, domain.ErrGeocodeNotFound):
		return ErrGeocodeFailed
	case stdErrors.Is(err, domain.ErrOutsideRegion):
		return ErrOutsideRegion
	}

	var upstream *UpstreamError
	if stdErrors.As(err, &upstream) {
		return ErrUpstream.WithMessage(upstream.Message)
	}

	return ErrInternalServer
}

// UpstreamError - ошибка внешнего сервиса с его текстом
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Message)
}
