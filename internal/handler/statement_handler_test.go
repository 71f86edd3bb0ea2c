package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinha-ledger/internal/domain"
)

func TestGet_Statement(t *testing.T) {
	wk := newTestWorker(t, domain.Account{ID: 1, Limit: 1000})
	txh := NewTransactionHandler(discardLogger())
	h := NewStatementHandler(discardLogger())

	for i := 1; i <= 11; i++ {
		body := fmt.Sprintf(`{"valor": %d, "tipo": "c", "descricao": "op%d"}`, i, i)
		require.Equal(t, http.StatusOK, serve(txh.Create, wk, http.MethodPost, "1", body).Code)
	}
	require.Equal(t, http.StatusOK,
		serve(txh.Create, wk, http.MethodPost, "1", `{"valor": 100, "tipo": "d", "descricao": "saque"}`).Code)

	before := time.Now().UTC().Add(-time.Second)
	rec := serve(h.Get, wk, http.MethodGet, "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got StatementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, int64(66-100), got.Saldo.Total)
	assert.Equal(t, int64(-1000), got.Saldo.Limite)
	assert.True(t, got.Saldo.DataExtrato.After(before))

	require.Len(t, got.UltimasTransacoes, domain.StatementSize)
	assert.Equal(t, EntryResponse{Valor: 100, Tipo: "d", Descricao: "saque", RealizadaEm: got.UltimasTransacoes[0].RealizadaEm},
		got.UltimasTransacoes[0])
	for i, e := range got.UltimasTransacoes[1:] {
		assert.Equal(t, "c", e.Tipo)
		assert.Equal(t, int64(11-i), e.Valor)
		assert.Equal(t, fmt.Sprintf("op%d", 11-i), e.Descricao)
	}
}

func TestGet_EmptyHistoryIsAnEmptyList(t *testing.T) {
	wk := newTestWorker(t, domain.Account{ID: 2, Limit: 80000})
	h := NewStatementHandler(discardLogger())

	rec := serve(h.Get, wk, http.MethodGet, "2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw["ultimas_transacoes"]))

	var saldo map[string]any
	require.NoError(t, json.Unmarshal(raw["saldo"], &saldo))
	assert.Equal(t, float64(0), saldo["total"])
	assert.Equal(t, float64(-80000), saldo["limite"])
	assert.Contains(t, saldo, "data_extrato")
}

func TestGet_UnknownAccount(t *testing.T) {
	wk := newTestWorker(t, domain.Account{ID: 1, Limit: 1000})
	h := NewStatementHandler(discardLogger())

	for _, id := range []string{"6", "2147483648"} {
		rec := serve(h.Get, wk, http.MethodGet, id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "id %s", id)
		assert.Empty(t, rec.Body.String(), "id %s", id)
	}
}
