package services

import (
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"

	"go.uber.org/zap"
)

// Result is the uniform outcome of every controller operation. Failures
// carry a Kind in Code so callers can tell, for example, a missing session
// from a store outage.
type Result[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Code    apperrors.Kind `json:"code,omitempty"`
	Status  int            `json:"-"`
}

func ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message, Status: http.StatusOK}
}

// fail converts err into a failure result. Errors from outside the
// application error package are reported as store failures.
func fail[T any](err error) Result[T] {
	var appErr *apperrors.Error
	if !stderrors.As(err, &appErr) {
		appErr = apperrors.Store(err.Error(), err)
	}
	return Result[T]{Success: false, Message: appErr.Message, Code: appErr.Kind, Status: apperrors.StatusFor(appErr.Kind)}
}

// recoverInto turns a panic in the calling operation into a store failure.
// It must be deferred directly.
func recoverInto[T any](logger *zap.Logger, op string, res *Result[T]) {
	if r := recover(); r != nil {
		logger.Error("Recovered panic in catalog operation",
			zap.String("operation", op),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		*res = Result[T]{
			Success: false,
			Message: fmt.Sprintf("%s failed unexpectedly", op),
			Code:    apperrors.KindStore,
			Status:  http.StatusInternalServerError,
		}
	}
}
