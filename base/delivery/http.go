package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// BatchFailure is the payload of a batch call whose local part partially succeeded
type BatchFailure struct {
	Error  string            `json:"error"`
	Failed map[string]string `json:"failed"`
	Notify string            `json:"notify,omitempty"`
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = StatusOf(err, status)
		var batchErr *token.BatchError
		if errors.As(err, &batchErr) {
			data = toBatchFailure(batchErr)
		} else {
			data = err.Error()
		}
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}

// StatusOf maps an error kind to its http status, fallback is used for unclassified errors
func StatusOf(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrBadParamInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, query.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProtocol):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInternalServerError):
		return http.StatusInternalServerError
	}
	if fallback < 400 {
		return http.StatusInternalServerError
	}
	return fallback
}

func toBatchFailure(err *token.BatchError) BatchFailure {
	res := BatchFailure{Error: err.Error(), Failed: map[string]string{}}
	for _, e := range err.Errors {
		res.Failed[e.TokenId.String()] = e.Err.Error()
	}
	if err.Notify != nil {
		res.Notify = err.Notify.Error()
	}
	return res
}
