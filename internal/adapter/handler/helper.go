package handler

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// toAppError maps usecase and domain errors onto AppErrors
func toAppError(err error) (errors.AppError, bool) {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrSessionEnded),
		stdErrors.Is(err, entities.ErrTimelineClosed):
		return errors.ErrSessionEnded(), true
	case stdErrors.Is(err, usecaseErrors.ErrSessionNotStarted):
		return errors.ErrSessionStarting(), true
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput),
		stdErrors.Is(err, usecaseErrors.ErrDeviceNotEnumerated),
		stdErrors.Is(err, usecaseErrors.ErrUnknownDevice),
		stdErrors.Is(err, entities.ErrUnknownDeviceKind),
		stdErrors.Is(err, entities.ErrDeviceNotFound),
		stdErrors.Is(err, entities.ErrEmptyMessage),
		stdErrors.Is(err, entities.ErrUnsupportedLang),
		stdErrors.Is(err, entities.ErrUnknownSource):
		return errors.ErrInvalidArgument(err.Error()), true
	case stdErrors.Is(err, usecaseErrors.ErrPickerNotOpen),
		stdErrors.Is(err, usecaseErrors.ErrShareUnavailable),
		stdErrors.Is(err, usecaseErrors.ErrAlreadyRecorded),
		stdErrors.Is(err, usecaseErrors.ErrRecordInProgress):
		return errors.ErrConflict(err), true
	case stdErrors.Is(err, usecaseErrors.ErrRecordNotFound),
		stdErrors.Is(err, usecaseErrors.ErrNotFound):
		return errors.ErrNotFound("meeting record"), true
	case stdErrors.Is(err, usecaseErrors.ErrNoPendingRecord):
		return errors.ErrNotFound("pending meeting record"), true
	case stdErrors.Is(err, context.DeadlineExceeded):
		return errors.ErrInternal(err).WithDetail("reason", "timeout"), true
	}
	return errors.AppError{}, false
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	if appErr, ok := toAppError(err); ok {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// bindAndValidate decodes the request into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidArgument("invalid request body").WithDetail("reason", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument("validation failed").WithDetail("reason", err.Error())
	}
	return nil
}
