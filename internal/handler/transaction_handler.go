package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/errors"
)

const maxDescriptionLength = 10

// noNUL rejects descriptions the store cannot hold in a text column.
var noNUL = validation.NewStringRule(func(s string) bool {
	return !strings.ContainsRune(s, 0)
}, "must not contain NUL characters")

type TransactionHandler struct {
	logger *slog.Logger
}

func NewTransactionHandler(logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		logger: logger,
	}
}

// TransactionRequest fields are pointers so a missing field can be told from a zero one.
type TransactionRequest struct {
	Valor     *int32  `json:"valor"`
	Tipo      *string `json:"tipo"`
	Descricao *string `json:"descricao"`
}

type TransactionResponse struct {
	Limite int64 `json:"limite"`
	Saldo  int64 `json:"saldo"`
}

// Operation validates the request in order (shape, description, kind) and stops at the
// first failure.
func (req *TransactionRequest) Operation() (domain.Operation, error) {
	if req.Valor == nil || req.Tipo == nil || req.Descricao == nil {
		return domain.Operation{}, errors.ErrInvalidInput.WithDetails("valor, tipo and descricao are required")
	}
	if err := validation.Validate(*req.Valor, validation.Required, validation.Min(int32(1))); err != nil {
		return domain.Operation{}, errors.ErrInvalidInput.WithDetails("valor: " + err.Error())
	}
	if err := validation.Validate(*req.Descricao,
		validation.Required,
		validation.RuneLength(1, maxDescriptionLength),
		noNUL,
	); err != nil {
		return domain.Operation{}, errors.ErrInvalidInput.WithDetails("descricao: " + err.Error())
	}
	if err := validation.Validate(*req.Tipo,
		validation.Required,
		validation.In(string(domain.Debit), string(domain.Credit)),
	); err != nil {
		return domain.Operation{}, errors.ErrInvalidInput.WithDetails("tipo: " + err.Error())
	}

	return domain.Operation{
		Amount:      int64(*req.Valor),
		Kind:        domain.Kind(*req.Tipo),
		Description: *req.Descricao,
	}, nil
}

// decodeTransactionRequest reads exactly one JSON object; anything after it makes the
// body malformed.
func decodeTransactionRequest(body io.Reader) (TransactionRequest, error) {
	var req TransactionRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return req, errors.ErrInvalidInput.WithDetails(err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return req, errors.ErrInvalidInput.WithDetails("unexpected data after JSON object")
	}
	return req, nil
}

// Create handles POST /clientes/{id}/transacoes.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	req, err := decodeTransactionRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	op, err := req.Operation()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := wk.Ledger.Apply(ctx, id, op.Delta(), op.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionResponse{
		Limite: -result.Limit,
		Saldo:  result.Balance,
	})
}
