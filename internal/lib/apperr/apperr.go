// Package apperr описывает классы ошибок приложения и их отображение
// в HTTP-статусы. Слои оборачивают эти ошибки через fmt.Errorf("%s: %w", op, err),
// обработчики проверяют их через errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation некорректные входные данные.
	ErrValidation = errors.New("validation error")
	// ErrUnauthenticated нет валидной сессии.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden недостаточно прав.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound ресурс не найден или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушение уникальности или инварианта.
	ErrConflict = errors.New("conflict")
	// ErrUpstream сбой хранилища или внешнего провайдера, запрос можно повторить.
	ErrUpstream = errors.New("upstream failure")
)

// HTTPStatus возвращает HTTP-статус для ошибки.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
