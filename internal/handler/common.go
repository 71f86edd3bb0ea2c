package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rinha-ledger/internal/errors"
	"rinha-ledger/internal/worker"
)

// maxBodyBytes bounds request bodies; anything larger cannot be a valid operation.
const maxBodyBytes = 4 << 10

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeStatus answers with an empty body.
func writeStatus(w http.ResponseWriter, statusCode int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(statusCode)
}

// writeError maps err to its status. Errors that are not AppErrors are logged here;
// AppErrors have been logged where they were raised.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewAppError(errors.InternalError, "unexpected error").WithDetails(err.Error())
		logger.Error("Unexpected error", "code", appErr.Code, "error", err)
	}
	writeStatus(w, appErr.HTTPStatus())
}

// accountID reads the {id} path variable. Ids outside the store's 32-bit key range
// cannot exist and are reported as not found.
func accountID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// requestWorker returns the worker bound to the request's connection together with a
// context that is not cancelled when the client goes away: started work runs to
// completion.
func requestWorker(r *http.Request) (*worker.Worker, context.Context, bool) {
	w, ok := worker.FromContext(r.Context())
	if !ok {
		return nil, nil, false
	}
	return w, context.WithoutCancel(r.Context()), true
}
