// Package api provides the HTTP API for the synthesis lab.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/enhance"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/persistence"
	"github.com/talgya/synthesis-lab/internal/recipe"
	"github.com/talgya/synthesis-lab/internal/synthesis"
)

// Server serves the lab over HTTP.
type Server struct {
	Lab         *synthesis.Lab
	Table       *recipe.Table
	Roster      *creature.Roster
	DB          *persistence.DB // Optional; nil disables saving
	Metrics     http.Handler    // Optional; served at /metrics
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string
	Clock       func() time.Time

	// walletMu is taken before any lab call that reads the wallet, so the
	// snapshot handed to the lab stays valid until the debit.
	walletMu sync.Mutex
	wallet   items.Wallet
}

// NewServer creates a server over a lab, its recipe table, a roster and the
// player's starting wallet.
func NewServer(lab *synthesis.Lab, table *recipe.Table, roster *creature.Roster, wallet items.Wallet) *Server {
	return &Server{
		Lab:    lab,
		Table:  table,
		Roster: roster,
		Clock:  time.Now,
		wallet: wallet,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	previewLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/creatures", s.handleCreatures)
	mux.HandleFunc("GET /api/v1/creature/{id}", s.handleCreatureDetail)
	mux.HandleFunc("GET /api/v1/species", s.handleSpecies)
	mux.HandleFunc("GET /api/v1/synthesis", s.handleActive)
	mux.HandleFunc("GET /api/v1/preview", RateLimitMiddleware(previewLimiter, s.handlePreview))
	mux.HandleFunc("GET /api/v1/outcomes", s.handleOutcomes)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/unlock", s.adminOnly(s.handleUnlock))
	mux.HandleFunc("POST /api/v1/synthesis/start", s.adminOnly(s.handleStart))
	mux.HandleFunc("POST /api/v1/synthesis/advance", s.adminOnly(s.handleAdvance))
	mux.HandleFunc("POST /api/v1/synthesis/cancel", s.adminOnly(s.handleCancel))
	mux.HandleFunc("POST /api/v1/enhance", s.adminOnly(s.handleEnhance))
	mux.HandleFunc("POST /api/v1/ledger/reset", s.adminOnly(s.handleLedgerReset))
	mux.HandleFunc("POST /api/v1/wallet/grant", s.adminOnly(s.handleGrant))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no LABSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// creatureView is a creature plus its stats as seen in battle.
type creatureView struct {
	creature.Creature
	DerivedStats creature.StatBlock `json:"derived_stats"`
}

func viewOf(c creature.Creature) creatureView {
	return creatureView{Creature: c, DerivedStats: enhance.DerivedStats(c)}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.walletMu.Lock()
	wallet := s.wallet
	s.walletMu.Unlock()

	status := map[string]any{
		"name":       "Synthesis Lab",
		"ledger":     s.Lab.Ledger(),
		"energy_cap": s.Lab.EnergyCap(),
		"wallet":     wallet,
		"creatures":  s.Roster.Len(),
		"recipes":    s.Table.Len(),
	}
	if p, ok := s.Lab.Active(); ok {
		status["active"] = map[string]any{
			"id":       p.ID,
			"phase":    p.Phase,
			"progress": p.Progress,
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleCreatures(w http.ResponseWriter, r *http.Request) {
	all := s.Roster.All()
	family := creature.Family(r.URL.Query().Get("family"))
	out := make([]creatureView, 0, len(all))
	for _, c := range all {
		if family != "" && c.Family != family {
			continue
		}
		out = append(out, viewOf(c))
	}
	writeJSON(w, out)
}

func (s *Server) handleCreatureDetail(w http.ResponseWriter, r *http.Request) {
	c, err := s.Roster.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	detail := map[string]any{
		"creature":       viewOf(c),
		"can_synthesize": c.Depth < creature.MaxDepth,
	}
	if depth, err := s.Roster.ChainDepth(c.ID); err == nil {
		detail["lineage_depth"] = depth
	}
	if c.Rung < enhance.MaxRung {
		detail["next_rung_items"] = enhance.Requirements(c.Rung + 1)
	}
	writeJSON(w, detail)
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Table.AllSpecies())
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Lab.Active()
	if !ok {
		writeError(w, http.StatusNotFound, string(synthesis.CodeNoProcessInProgress), synthesis.ErrNoProcessInProgress)
		return
	}
	writeJSON(w, p)
}

// pair loads the two creatures named by ids a and b.
func (s *Server) pair(a, b string) (creature.Creature, creature.Creature, error) {
	ca, err := s.Roster.Get(a)
	if err != nil {
		return creature.Creature{}, creature.Creature{}, err
	}
	cb, err := s.Roster.Get(b)
	if err != nil {
		return creature.Creature{}, creature.Creature{}, err
	}
	return ca, cb, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b, err := s.pair(q.Get("a"), q.Get("b"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	writeJSON(w, s.Lab.Preview(a, b))
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []persistence.OutcomeRecord{})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be 1-500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	outcomes, err := s.DB.RecentOutcomes(limit)
	if err != nil {
		slog.Error("load outcomes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, outcomes)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	s.Lab.Unlock()
	writeJSON(w, map[string]bool{"unlocked": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	a, b, err := s.pair(req.A, req.B)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)
		return
	}

	s.walletMu.Lock()
	defer s.walletMu.Unlock()

	p, err := s.Lab.Start(a, b, s.wallet.Gold, s.wallet.Inventory)
	if err != nil {
		writeLabError(w, err)
		return
	}
	var consumed []items.ItemID
	if p.Cost.Item != nil {
		consumed = append(consumed, *p.Cost.Item)
	}
	if err := s.wallet.Pay(p.Cost.Gold, consumed); err != nil {
		// The lab checked the same snapshot under walletMu, so this is a bug.
		slog.Error("wallet debit after start", "process", p.ID, "error", err)
	}
	s.saveWallet()
	writeJSON(w, p)
}

type handleRequest struct {
	Process synthesis.Handle `json:"process"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	out, err := s.Lab.Advance(req.Process)
	if err != nil {
		writeLabError(w, err)
		return
	}
	if out.Final != nil {
		s.recordFinal(out.Process, *out.Final)
	}
	writeJSON(w, out)
}

// recordFinal adds a new offspring to the roster and journals the outcome.
func (s *Server) recordFinal(p synthesis.Process, f synthesis.Final) {
	if f.Offspring != nil {
		s.Roster.Put(*f.Offspring)
	}
	if s.DB == nil {
		return
	}
	if f.Offspring != nil {
		if err := s.DB.PutCreature(*f.Offspring); err != nil {
			slog.Error("save offspring", "creature", f.Offspring.ID, "error", err)
		}
	}
	if err := s.DB.RecordOutcome(p, f, s.Clock()); err != nil {
		slog.Error("journal outcome", "process", p.ID, "error", err)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ok, err := s.Lab.Cancel(req.Process)
	if err != nil {
		writeLabError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"cancelled": ok})
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Creature string `json:"creature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// The creature is read under walletMu so concurrent requests see each
	// other's rung and pay for it once.
	s.walletMu.Lock()
	defer s.walletMu.Unlock()

	c, err := s.Roster.Get(req.Creature)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	res, err := enhance.Enhance(c, s.wallet.Inventory)
	if err != nil {
		var rej *enhance.Rejection
		if errors.As(err, &rej) {
			writeError(w, http.StatusUnprocessableEntity, string(rej.Reason), err)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	if !s.Roster.Swap(c.ID, c.Rung, res.Creature) {
		writeError(w, http.StatusConflict, "RUNG_CHANGED", fmt.Errorf("creature %s is no longer at rung %d", c.ID, c.Rung))
		return
	}
	if err := s.wallet.Pay(0, res.Consumed); err != nil {
		slog.Error("wallet debit after enhance", "creature", c.ID, "error", err)
	}
	if s.DB != nil {
		if err := s.DB.PutCreature(res.Creature); err != nil {
			slog.Error("save enhanced creature", "creature", c.ID, "error", err)
		}
	}
	s.saveWallet()
	slog.Info("creature enhanced", "creature", c.Name, "rung", res.Creature.Rung)
	writeJSON(w, res)
}

func (s *Server) handleLedgerReset(w http.ResponseWriter, r *http.Request) {
	s.Lab.ResetLedger()
	writeJSON(w, s.Lab.Ledger())
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req items.Wallet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.walletMu.Lock()
	defer s.walletMu.Unlock()
	s.wallet.Grant(req.Gold, req.Inventory)
	s.saveWallet()
	writeJSON(w, s.wallet)
}

// saveWallet persists the wallet. Caller holds walletMu.
func (s *Server) saveWallet() {
	if s.DB == nil {
		return
	}
	if err := s.DB.SaveWallet(s.wallet); err != nil {
		slog.Error("save wallet", "error", err)
	}
}

var labStatus = map[synthesis.Code]int{
	synthesis.CodeLabLocked:                   http.StatusLocked,
	synthesis.CodeAlreadyInProgress:           http.StatusConflict,
	synthesis.CodeIncompatibleInputs:          http.StatusUnprocessableEntity,
	synthesis.CodeInsufficientResources:       http.StatusPaymentRequired,
	synthesis.CodeNoProcessInProgress:         http.StatusNotFound,
	synthesis.CodeCannotCancelPastPreparation: http.StatusConflict,
}

func writeLabError(w http.ResponseWriter, err error) {
	var labErr *synthesis.Error
	if !errors.As(err, &labErr) {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err)
		return
	}
	status, ok := labStatus[labErr.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	writeError(w, status, string(labErr.Code), err)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
