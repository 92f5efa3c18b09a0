// errors стандартизирует ответы об ошибках HTTP-слоя digest-proxy.
// На вход он принимает доменную ошибку (sentinel из service/reader),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Таксономия (источник истинности — поведение апстрим-прокси):
//   - отказ каталога подписок -> 502, его нечитаемое тело -> 500
//     (различаем «апстрим недоступен/отверг» и «апстрим ответил мусором»);
//   - таймаут сквозного вызова -> 504;
//   - неразрешённый endpoint -> 403, битые аргументы -> 400.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-digest-proxy/internal/reader"
	"github.com/pribylovaa/go-digest-proxy/internal/service"
)

// ErrEndpointNotAllowed — запрошенный сквозной endpoint вне allow-list.
var ErrEndpointNotAllowed = errors.New("endpoint not allowed")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный
// ответ для фронта.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка - 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — базовый маппинг доменных sentinel-ошибок -> HTTP/FE-код/сообщение.
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, ErrEndpointNotAllowed):
		return http.StatusForbidden, "endpoint_not_allowed", "endpoint not allowed"
	case errors.Is(err, service.ErrDirectoryDecode):
		return http.StatusInternalServerError, "upstream_decode", "failed to decode upstream response"
	case errors.Is(err, service.ErrDirectoryUnavailable):
		return http.StatusBadGateway, "upstream_unavailable", "upstream unavailable"
	case errors.Is(err, reader.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout", "upstream request timed out"
	case errors.Is(err, reader.ErrDecode):
		return http.StatusInternalServerError, "upstream_decode", "failed to decode upstream response"
	case errors.Is(err, reader.ErrRequest):
		return http.StatusBadGateway, "upstream_unavailable", "upstream unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
