package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/sessionauth/internal/common/errors"
	"github.com/AlibekovAA/sessionauth/internal/common/httpmetrics"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
	"github.com/AlibekovAA/sessionauth/internal/observability/metrics"
)

// DetailedError is implemented by errors that carry user-facing details,
// such as the full list of validation messages.
type DetailedError interface {
	error
	Details() map[string]any
}

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	traceID := getTraceIDFromContext(ctx)

	if domainErr, ok := commonerrors.AsDomainError(err); ok {
		var details map[string]any
		var detailed DetailedError
		if errors.As(err, &detailed) {
			details = detailed.Details()
		}
		h.handleDomainError(w, r, domainErr, details)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.log.WithFields(ctx, logger.Fields{
			"action": "request_timeout",
		}).Warnf("request timed out: %v", err)
		h.countHTTPError(r, http.StatusGatewayTimeout)
		WriteErrorEnvelope(w, http.StatusGatewayTimeout, CodeTimeout, "request timed out", nil, traceID)
		return
	}

	h.log.WithFields(ctx, logger.Fields{
		"error":  err.Error(),
		"action": "unhandled_error",
	}).Errorf("unhandled error: %v", err)

	h.countHTTPError(r, http.StatusInternalServerError)
	WriteErrorEnvelope(w, http.StatusInternalServerError, CodeUnknown, "internal server error", nil, traceID)
}

func (h *ErrorHandler) handleDomainError(w http.ResponseWriter, r *http.Request, err commonerrors.DomainError, details map[string]any) {
	ctx := r.Context()
	traceID := getTraceIDFromContext(ctx)

	domainErr := err
	if traceID != "" && err.TraceID() == "" {
		domainErr = err.WithTraceID(traceID)
	}

	status := domainErr.HTTPStatus()

	logFields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}
	if status >= http.StatusInternalServerError {
		h.log.WithFields(ctx, logFields).Errorf("domain error: %s", domainErr.Error())
	} else if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, logFields).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()
	h.countHTTPError(r, status)

	WriteErrorEnvelope(w, status, domainErr.Code(), domainErr.Message(), details, domainErr.TraceID())
}

func (h *ErrorHandler) countHTTPError(r *http.Request, status int) {
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()
}

func getTraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(constants.TraceIDKey).(string)
	return traceID
}
