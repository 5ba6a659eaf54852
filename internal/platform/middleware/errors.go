package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/internal/platform/session"
	"github.com/practice/console/internal/platform/validation"
)

// HTTPStatuser is implemented by domain errors that map to a fixed status.
type HTTPStatuser interface {
	HTTPStatus() int
}

// HTTPError converts an error from a service call into the response status
// the BFF returns. Upstream 4xx statuses pass through; upstream 5xx becomes
// 502.
func HTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return echo.NewHTTPError(http.StatusUnauthorized, "session expired, please log in again")
	}
	var st HTTPStatuser
	if errors.As(err, &st) {
		return echo.NewHTTPError(st.HTTPStatus(), err.Error())
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, validation.FirstError(verrs))
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code >= 500 || code < 400 {
			code = http.StatusBadGateway
		}
		return echo.NewHTTPError(code, apiErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
