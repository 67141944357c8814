package common

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"haventory/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code, message string, context map[string]any) *ErrorResponse {
	return &ErrorResponse{Error: ErrorBody{Code: code, Message: message, Context: context}}
}

// StatusForCode maps an error code to its HTTP status.
func StatusForCode(code string) int {
	switch code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeConflict:
		return http.StatusConflict
	case models.CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorContext extracts the structured details carried by domain errors.
func ErrorContext(err error) map[string]any {
	var (
		notFound *models.NotFoundError
		conflict *models.ConflictError
		storage  *models.StorageError
	)
	switch {
	case errors.As(err, &notFound):
		return map[string]any{"resource": notFound.Resource, "id": notFound.ID}
	case errors.As(err, &conflict):
		return map[string]any{"expected_version": conflict.Expected, "actual_version": conflict.Actual}
	case errors.As(err, &storage):
		return map[string]any{"op": storage.Op}
	}
	return nil
}

// SendError writes err in the error envelope. Client errors are logged at warn, the rest at error.
func SendError(c echo.Context, log *slog.Logger, op string, err error) error {
	code := models.ErrorCode(err)
	status := StatusForCode(code)

	message := err.Error()
	if code == models.CodeInternal {
		message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		log.Error("command failed", "op", op, "code", code, "error", err)
	} else {
		log.Warn("command rejected", "op", op, "code", code, "error", err)
	}
	return c.JSON(status, CreateErrorResponse(code, message, ErrorContext(err)))
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(models.CodeValidation, message, map[string]any{"field": field}))
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes, bad methods, panics
// recovered by middleware) in the same envelope.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := models.CodeInternal
			switch he.Code {
			case http.StatusBadRequest:
				code = models.CodeValidation
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				code = models.CodeNotFound
			}
			message := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok {
				message = m
			}
			if writeErr := c.JSON(he.Code, CreateErrorResponse(code, message, nil)); writeErr != nil {
				log.Error("failed to write error response", "error", writeErr)
			}
			return
		}

		if writeErr := SendError(c, log, c.Path(), err); writeErr != nil {
			log.Error("failed to write error response", "error", writeErr)
		}
	}
}

// ParseIDParam parses a UUID v4 path parameter.
func ParseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return models.ParseUUIDv4(strings.TrimSpace(c.Param(name)), name)
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, models.NewValidationError("%s must be a boolean", name)
	}
	return &v, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(c echo.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewValidationError("%s must be an integer", name)
	}
	return &v, nil
}

// QueryList splits a comma separated query parameter, dropping empty entries.
func QueryList(c echo.Context, name string) []string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
