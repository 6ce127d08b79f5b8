package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrWong99/recruitgraph/internal/caretaker"
	"github.com/MrWong99/recruitgraph/internal/observe"
	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler exposes a [Service] as a JSON API under /v1.
type Handler struct {
	svc *Service
}

// NewHandler returns the HTTP API for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/creatures", h.creatures)
	mux.HandleFunc("GET /v1/creatures/{name}/recruits", h.recruits)
	mux.HandleFunc("GET /v1/creatures/{name}/recruiters", h.recruiters)
	mux.HandleFunc("GET /v1/creatures/{name}/max-useful", h.maxUseful)
	mux.HandleFunc("GET /v1/creatures/{name}/terrains", h.terrains)
	mux.HandleFunc("GET /v1/recruiters-needed", h.recruitersNeeded)
	mux.HandleFunc("GET /v1/recruit", h.recruit)
	mux.HandleFunc("POST /v1/best-recruit", h.bestRecruit)
	mux.HandleFunc("GET /v1/redundant", h.redundant)
	mux.HandleFunc("GET /v1/stock", h.stock)
	mux.HandleFunc("POST /v1/stock/reset", h.resetStock)
	mux.HandleFunc("POST /v1/stock/{name}/take", h.take)
	mux.HandleFunc("POST /v1/stock/{name}/return", h.giveBack)
}

// ─────────────────────────────────────────────────────────────────────────────
// Creature routes
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) creatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"variant":   h.svc.Variant(),
		"creatures": h.svc.Creatures(r.Context()),
	})
}

func (h *Handler) recruits(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	opts, err := h.svc.RecruitableBy(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creature": name, "options": nonNil(opts)})
}

func (h *Handler) recruiters(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	opts, err := h.svc.RecruitersOf(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creature": name, "options": nonNil(opts)})
}

func (h *Handler) maxUseful(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	n, err := h.svc.MaximumUsefulNumber(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creature": name, "max_useful": n})
}

func (h *Handler) terrains(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	number, err := intParam(r, "number", 0, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ts, err := h.svc.TerrainsWhereNumberRecruits(r.Context(), name, number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creature": name, "number": number, "terrains": nonNil(ts)})
}

// ─────────────────────────────────────────────────────────────────────────────
// Query routes
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) recruitersNeeded(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := h.svc.NumberOfRecruiterNeeded(r.Context(),
		q.Get("recruiter"), q.Get("recruit"), recruit.Terrain(q.Get("terrain")), q.Get("hex"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"number": n, "possible": n < recruit.BigNum})
}

func (h *Handler) recruit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, err := intParam(r, "number", 0, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, ok, err := h.svc.RecruitFor(r.Context(), q.Get("recruiter"), recruit.Terrain(q.Get("terrain")), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recruit": name, "found": ok})
}

type bestRecruitRequest struct {
	Creature string         `json:"creature"`
	Legion   map[string]int `json:"legion"`
}

func (h *Handler) bestRecruit(w http.ResponseWriter, r *http.Request) {
	var req bestRecruitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.BestRecruit(r.Context(), req.Creature, req.Legion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) redundant(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	distance, err := intParam(r, "distance", -1, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	within, err := h.svc.RecruitDistance(r.Context(), q.Get("lesser"), q.Get("greater"), distance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"within": within})
}

// ─────────────────────────────────────────────────────────────────────────────
// Stock routes
// ─────────────────────────────────────────────────────────────────────────────

type stockRequest struct {
	Count int `json:"count"`
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stock": h.svc.Stock(r.Context())})
}

func (h *Handler) resetStock(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetStock(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"stock": h.svc.Stock(r.Context())})
}

func (h *Handler) take(w http.ResponseWriter, r *http.Request) {
	h.moveStock(w, r, h.svc.Take)
}

func (h *Handler) giveBack(w http.ResponseWriter, r *http.Request) {
	h.moveStock(w, r, h.svc.Return)
}

func (h *Handler) moveStock(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, name string, n int) (int, error)) {
	name := r.PathValue("name")
	var req stockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	left, err := op(r.Context(), name, req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creature": name, "remaining": left})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type errorBody struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCreature), errors.Is(err, ErrUnknownTerrain):
		return http.StatusNotFound
	case errors.Is(err, caretaker.ErrExhausted):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, caretaker.ErrInvalidCount),
		errors.Is(err, caretaker.ErrLegionFull):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var uc *UnknownCreatureError
	if errors.As(err, &uc) {
		body.Suggestion = uc.Suggestion
	}
	if status == http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("inspector: request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %w", ErrInvalidArgument, err)
	}
	return nil
}

// intParam parses the query parameter key. Missing values yield def, or an
// error when required.
func intParam(r *http.Request, key string, def int, required bool) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
		}
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidArgument, key, err)
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
