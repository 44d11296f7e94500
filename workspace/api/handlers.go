package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pushchain/evm-workspace-demo/workspace/db"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "workspace is not running")
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: s.status.Status(), Timestamp: time.Now().UTC()})
}

// handleTransactions handles GET /api/v1/transactions?run=<run id>
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.journal.ListTransactions(r.URL.Query().Get("run"))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list transactions")
		s.writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	data := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		data = append(data, newTransaction(tx))
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: data, Timestamp: time.Now().UTC()})
}

// handleTransaction handles GET /api/v1/transactions/{hash}
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	tx, err := s.journal.GetTransaction(hash)
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("tx_hash", hash).Msg("failed to get transaction")
		s.writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: newTransaction(*tx), Timestamp: time.Now().UTC()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, ErrorResponse{Error: msg})
}
