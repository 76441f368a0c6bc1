// Package handlers exposes a ledger.Manager over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sheikh-saqib/finance-records-ledger/internal/api/middleware"
	"github.com/sheikh-saqib/finance-records-ledger/internal/ledger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/logger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// Handler serves the ledger API. Requests are serialised since the Manager
// is not safe for concurrent use.
type Handler struct {
	mu  sync.Mutex
	mgr *ledger.Manager
	log zerolog.Logger
}

func New(mgr *ledger.Manager, log zerolog.Logger) *Handler {
	return &Handler{mgr: mgr, log: log}
}

// Routes returns the API routes wrapped with request id, logging and recovery.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /records", h.SearchRecords)
	mux.HandleFunc("POST /records", h.AddRecord)
	mux.HandleFunc("PUT /records/{index}", h.UpdateRecord)
	mux.HandleFunc("GET /balance", h.Balance)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(h.log),
		middleware.Recovery(h.log),
	)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddRecord handles POST /records with a JSON object of record fields.
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status, err := h.mgr.Add(r.Context(), fields)
	if err != nil {
		writeLedgerError(w, r, status, err)
		return
	}
	records := h.mgr.Records()
	middleware.WriteJSON(w, status, map[string]interface{}{
		"index":   len(records) - 1,
		"record":  records[len(records)-1],
		"balance": h.mgr.ShowBalance(),
	})
}

// UpdateRecord handles PUT /records/{index} with a JSON object of the fields to replace.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid index %q", r.PathValue("index")))
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status, err := h.mgr.UpdateByIndex(r.Context(), index, fields)
	if err != nil {
		writeLedgerError(w, r, status, err)
		return
	}
	middleware.WriteJSON(w, status, map[string]interface{}{
		"index":   index,
		"record":  h.mgr.Records()[index],
		"balance": h.mgr.ShowBalance(),
	})
}

// SearchRecords handles GET /records; query parameters are search criteria.
func (h *Handler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	criteria := make(models.Fields)
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		criteria[key] = values[0]
		if key == models.FieldAmount {
			if n, err := strconv.ParseInt(values[0], 10, 64); err == nil {
				criteria[key] = n
			}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": h.mgr.Search(criteria),
	})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	middleware.WriteJSON(w, http.StatusOK, map[string]int64{"balance": h.mgr.ShowBalance()})
}

// decodeFields reads a JSON object. Integral numbers become int64, others
// float64, so "500.0" is rejected by the ledger like any float.
func decodeFields(r *http.Request) (models.Fields, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	fields := make(models.Fields, len(raw))
	for k, v := range raw {
		if num, ok := v.(json.Number); ok {
			v = number(num)
		}
		fields[k] = v
	}
	return fields, nil
}

func number(num json.Number) interface{} {
	if n, err := num.Int64(); err == nil {
		return n
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}

func writeLedgerError(w http.ResponseWriter, r *http.Request, status int, err error) {
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("ledger operation failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("ledger operation rejected")
	}

	body := map[string]interface{}{
		"error":  err.Error(),
		"status": status,
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		body["violations"] = verr.Violations
	}
	middleware.WriteJSON(w, status, body)
}
