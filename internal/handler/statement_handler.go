package handler

import (
	"log/slog"
	"net/http"
	"time"

	"rinha-ledger/internal/domain"
)

type StatementHandler struct {
	logger *slog.Logger
}

func NewStatementHandler(logger *slog.Logger) *StatementHandler {
	return &StatementHandler{
		logger: logger,
	}
}

type StatementResponse struct {
	Saldo             BalanceResponse `json:"saldo"`
	UltimasTransacoes []EntryResponse `json:"ultimas_transacoes"`
}

type BalanceResponse struct {
	Total       int64     `json:"total"`
	DataExtrato time.Time `json:"data_extrato"`
	Limite      int64     `json:"limite"`
}

type EntryResponse struct {
	Valor       int64     `json:"valor"`
	Tipo        string    `json:"tipo"`
	Descricao   string    `json:"descricao"`
	RealizadaEm time.Time `json:"realizada_em"`
}

// NewStatementResponse applies the public sign conventions: the limit is shown negated
// and entry amounts as magnitudes with their kind.
func NewStatementResponse(s *domain.Statement) StatementResponse {
	entries := make([]EntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, EntryResponse{
			Valor:       e.Magnitude(),
			Tipo:        string(e.Kind()),
			Descricao:   e.Description,
			RealizadaEm: e.OccurredAt,
		})
	}

	return StatementResponse{
		Saldo: BalanceResponse{
			Total:       s.Balance,
			DataExtrato: s.GeneratedAt,
			Limite:      -s.Limit,
		},
		UltimasTransacoes: entries,
	}
}

// Get handles GET /clientes/{id}/extrato.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		writeStatus(w, http.StatusNotFound)
		return
	}

	wk, ctx, ok := requestWorker(r)
	if !ok {
		h.logger.Error("No worker bound to connection", "path", r.URL.Path)
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	statement, err := wk.Ledger.ReadStatement(ctx, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewStatementResponse(statement))
}
