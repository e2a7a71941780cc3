package utils

import (
	"errors"
	"net/url"
	"strings"
)

// RedactURLError убирает query из *url.Error: там ключи доступа провайдеров.
// Остальные ошибки возвращаются как есть.
func RedactURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := uerr.URL
	if i := strings.IndexByte(redacted, '?'); i >= 0 {
		redacted = redacted[:i] + "?REDACTED"
	}
	return &url.Error{Op: uerr.Op, URL: redacted, Err: uerr.Err}
}
