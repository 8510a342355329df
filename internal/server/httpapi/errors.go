package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/minerledger/internal/common"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorBody{Error: kind, Message: msg})
}

// httpStatus maps an error kind to its response code.
func httpStatus(kind string) int {
	switch kind {
	case common.KindInvalidInput:
		return http.StatusBadRequest
	case common.KindRateLimited:
		return http.StatusTooManyRequests
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindAlreadyExists:
		return http.StatusConflict
	case common.KindUnauthorized:
		return http.StatusForbidden
	case common.KindStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeLedgerError(w http.ResponseWriter, err error) {
	kind := common.Kind(err)
	msg := err.Error()
	if kind == common.KindInternal {
		msg = "internal error"
	}
	writeError(w, httpStatus(kind), kind, msg)
}
