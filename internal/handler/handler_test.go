package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/repository"
	"rinha-ledger/internal/repository/memory"
	"rinha-ledger/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(t *testing.T, accounts ...domain.Account) *worker.Worker {
	t.Helper()
	store := memory.New(accounts...)
	pool, err := repository.NewPool(context.Background(), store.Factory(), 1)
	require.NoError(t, err)
	return worker.NewBinder(pool, discardLogger(), nil).Bind()
}

func serve(h http.HandlerFunc, wk *worker.Worker, method, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/clientes/"+id, strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	if wk != nil {
		req = req.WithContext(worker.NewContext(req.Context(), wk))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
