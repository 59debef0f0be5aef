// Пакет service — бизнес-логика сервиса синтеза речи.
// errors.go — типизированная ошибка сервисного слоя с HTTP-кодом.
package service

import (
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/govoicestore/internal/api/errors"
)

// Error — ошибка сервисного слоя. Несёт HTTP-статус и машинный код,
// позволяя обработчику сформировать ответ без знания деталей операции.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Конструкторы типовых ошибок сервисного слоя.

func errValidation(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: apierrors.CodeValidationError, Message: message}
}

func errInvalidArgument(message string) *Error {
	return &Error{StatusCode: http.StatusUnprocessableEntity, Code: apierrors.CodeInvalidArgument, Message: message}
}

func errNotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: apierrors.CodeNotFound, Message: message}
}

func errPayloadTooLarge(message string) *Error {
	return &Error{StatusCode: http.StatusRequestEntityTooLarge, Code: apierrors.CodePayloadTooLarge, Message: message}
}

func errUnsupportedMedia(message string) *Error {
	return &Error{StatusCode: http.StatusUnsupportedMediaType, Code: apierrors.CodeUnsupportedMediaType, Message: message}
}

func errEngine(message string) *Error {
	return &Error{StatusCode: http.StatusBadGateway, Code: apierrors.CodeEngineFailure, Message: message}
}

func errInternal(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: apierrors.CodeInternalError, Message: message}
}
