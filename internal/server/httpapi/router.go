package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/auth"
	"github.com/dmitrijs2005/minerledger/internal/server/metrics"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/gorilla/mux"
)

// recordResponse keeps the field names web clients already read
// (speed_ghs for the rate).
type recordResponse struct {
	UID            string  `json:"uid"`
	SpeedGHS       float64 `json:"speed_ghs"`
	Balance        float64 `json:"balance"`
	LastObservedAt int64   `json:"last_observed_at"`
	LastIncreaseAt int64   `json:"last_increase_at,omitempty"`
	LastResetAt    int64   `json:"last_reset_at,omitempty"`
	MiningActive   bool    `json:"mining_active"`
}

func toResponse(rec *models.UserRecord) recordResponse {
	return recordResponse{
		UID:            rec.ID,
		SpeedGHS:       rec.Rate,
		Balance:        rec.Balance,
		LastObservedAt: rec.LastObservedAt,
		LastIncreaseAt: rec.LastIncreaseAt,
		LastResetAt:    rec.LastResetAt,
		MiningActive:   rec.MiningActive,
	}
}

type syncBody struct {
	Balance *float64 `json:"balance"`
	Rate    *float64 `json:"rate"`
}

type handlers struct {
	ledger   Ledger
	resetter Resetter
	secret   string
	log      logging.Logger
}

// NewRouter wires the gateway routes. limiter may be nil.
func NewRouter(ledger Ledger, resetter Resetter, secret string, limiter *RateLimiter, log logging.Logger) http.Handler {
	h := &handlers{ledger: ledger, resetter: resetter, secret: secret, log: log.With("module", "http")}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(metrics.InstrumentHandler)
	if limiter != nil {
		api.Use(limiter.Middleware)
	}
	api.HandleFunc("/users/{uid}", h.observe).Methods(http.MethodGet)
	api.HandleFunc("/addspeed/{uid}", h.addSpeed).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/sync/{uid}", h.sync).Methods(http.MethodPost)
	api.HandleFunc("/admin/reset", h.reset).Methods(http.MethodPost)

	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) observe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Observe(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

func (h *handlers) addSpeed(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var amount *float64
	if raw := strings.TrimSpace(r.URL.Query().Get("amount")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, common.KindInvalidInput, fmt.Sprintf("amount %q is not a number", raw))
			return
		}
		amount = &v
	}

	rec, err := h.ledger.IncreaseRate(r.Context(), mux.Vars(r)["uid"], amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

func (h *handlers) sync(w http.ResponseWriter, r *http.Request) {
	var body syncBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, common.KindInvalidInput, "malformed JSON body")
		return
	}

	rec, err := h.ledger.Sync(r.Context(), mux.Vars(r)["uid"], body.Balance, body.Rate)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	report, err := h.resetter.SweepNow(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "on-demand reset failed", "error", err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// authorized checks the shared secret in the token query parameter and
// answers 403 when it does not match.
func (h *handlers) authorized(w http.ResponseWriter, r *http.Request) bool {
	if err := auth.CheckSharedSecret(r.URL.Query().Get(common.SharedSecretParam), h.secret); err != nil {
		h.log.Warn(r.Context(), "forbidden", "path", r.URL.Path, "remote", clientKey(r))
		writeError(w, http.StatusForbidden, common.KindUnauthorized, "forbidden")
		return false
	}
	return true
}
