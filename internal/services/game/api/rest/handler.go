package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
	"github.com/manhuntgame/manhunt/internal/services/game/admingrant"
	"github.com/manhuntgame/manhunt/internal/services/game/app"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/player"
	"github.com/manhuntgame/manhunt/internal/services/game/domain/proof"
)

// maxBodyBytes bounds request bodies; game commands are tiny.
const maxBodyBytes = 1 << 20

type contextKey string

const adminIDKey contextKey = "admin_id"

// Handler routes the game's HTTP control surface.
type Handler struct {
	svc       *app.Service
	adminAuth *admingrant.Config
}

// NewHandler builds the HTTP handler. A nil adminAuth disables grant
// checks; that mode exists for local development only.
func NewHandler(svc *app.Service, adminAuth *admingrant.Config) http.Handler {
	h := &Handler{svc: svc, adminAuth: adminAuth}

	mux := http.NewServeMux()
	mux.Handle("/join", http.HandlerFunc(h.handleJoin))
	mux.Handle("/target", http.HandlerFunc(h.handleTarget))
	mux.Handle("/proofs", http.HandlerFunc(h.handleSubmitProof))

	mux.Handle("/admin/start", h.admin(h.handleStart))
	mux.Handle("/admin/end", h.admin(h.handleEnd))
	mux.Handle("/admin/purge", h.admin(h.handlePurge))
	mux.Handle("/admin/pin", h.admin(h.handlePIN))
	mux.Handle("/admin/bounty", h.admin(h.handleBounty))
	mux.Handle("/admin/players", h.admin(h.handlePlayers))
	mux.Handle("/admin/players/remove", h.admin(h.handleRemovePlayer))
	mux.Handle("/admin/proofs", h.admin(h.handlePendingProofs))
	mux.Handle("/admin/proofs/verify", h.admin(h.handleVerifyProof))
	mux.Handle("/admin/proofs/reject", h.admin(h.handleRejectProof))
	mux.Handle("/admin/overview", h.admin(h.handleOverview))
	mux.Handle("/admin/domination", h.admin(h.handleDomination))
	return mux
}

// admin wraps a handler with bearer-grant verification and stashes the
// verified admin id in the request context.
func (h *Handler) admin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminAuth == nil {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminIDKey, "admin")))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		claims, err := admingrant.Validate(token, *h.adminAuth)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminIDKey, claims.AdminID)))
	})
}

func adminID(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

type errorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	payload := errorPayload{Code: string(code), Message: err.Error()}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		payload.Message = appErr.Message
		payload.Metadata = appErr.Metadata
	}
	status := code.HTTPStatus()
	if status == http.StatusInternalServerError {
		// Do not leak internals on unexpected failures.
		log.Printf("request failed: %v", err)
		payload.Message = "internal error"
	}
	writeJSON(w, status, map[string]errorPayload{"error": payload})
}

type playerPayload struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Group  string   `json:"group"`
	Alive  bool     `json:"alive"`
	Kills  int      `json:"kills"`
	Streak int      `json:"streak"`
	Badges []string `json:"badges,omitempty"`
}

func playerToPayload(p player.Player) playerPayload {
	return playerPayload{
		ID:     p.ID,
		Name:   p.Name,
		Group:  p.Group,
		Alive:  p.Alive,
		Kills:  p.KillCount,
		Streak: p.StreakCount,
		Badges: p.Badges,
	}
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Group string `json:"group"`
		PIN   string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.JoinGame(r.Context(), req.Name, req.Group, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	printer := printerFor(r)
	writeJSON(w, http.StatusCreated, map[string]any{
		"player":  playerToPayload(p),
		"message": printer.Sprintf("Welcome to the hunt, %s.", p.Name),
	})
}

func (h *Handler) handleTarget(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	name := r.URL.Query().Get("name")
	view, err := h.svc.GetPlayerView(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{
		"player": playerToPayload(view.Player),
		"target": view.TargetName,
	}
	if view.TargetName != "" {
		body["message"] = printerFor(r).Sprintf("Your target is %s. Good hunting.", view.TargetName)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Submitter string `json:"submitter"`
		Target    string `json:"target"`
		MediaURL  string `json:"media_url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.SubmitProof(r.Context(), req.Submitter, req.Target, req.MediaURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"proof": proofToPayload(p),
	})
}

type leaderPayload struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Alive    bool     `json:"alive"`
	Kills    int      `json:"kills"`
	Streak   int      `json:"streak"`
	Badges   []string `json:"badges,omitempty"`
}

type proofReviewPayload struct {
	Reviewer string    `json:"reviewer"`
	At       time.Time `json:"at"`
	Notes    string    `json:"notes,omitempty"`
}

type proofPayload struct {
	ID          string              `json:"id"`
	SubmitterID string              `json:"submitter_id"`
	TargetName  string              `json:"target_name"`
	MediaURL    string              `json:"media_url,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	Status      string              `json:"status"`
	Review      *proofReviewPayload `json:"review,omitempty"`
}

func proofToPayload(p proof.Proof) proofPayload {
	payload := proofPayload{
		ID:          p.ID,
		SubmitterID: p.SubmitterID,
		TargetName:  p.TargetName,
		MediaURL:    p.MediaURL,
		SubmittedAt: p.SubmittedAt,
		Status:      string(p.Status),
	}
	if p.Review != nil {
		payload.Review = &proofReviewPayload{
			Reviewer: p.Review.Reviewer,
			At:       p.Review.At,
			Notes:    p.Review.Notes,
		}
	}
	return payload
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.StartGame(r.Context(), req.PIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.svc.EndGame(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	enabled, err := h.svc.TogglePurgeMode(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"purge_mode": enabled})
}

func (h *Handler) handlePIN(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RotateJoinPIN(r.Context(), req.PIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rotated"})
}

func (h *Handler) handleBounty(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Target      string `json:"target"`
			Prize       string `json:"prize"`
			Description string `json:"description"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.svc.SetBounty(r.Context(), req.Target, req.Prize, req.Description); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "set"})
	case http.MethodDelete:
		if err := h.svc.ClearBounty(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	players, err := h.svc.ListPlayers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	payload := make([]playerPayload, 0, len(players))
	for _, p := range players {
		payload = append(payload, playerToPayload(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": payload})
}

func (h *Handler) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RemovePlayer(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) handlePendingProofs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	proofs, err := h.svc.ListPendingProofs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	payload := make([]proofPayload, 0, len(proofs))
	for _, p := range proofs {
		payload = append(payload, proofToPayload(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"proofs": payload})
}

func (h *Handler) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ProofID  string `json:"proof_id"`
		Notes    string `json:"notes"`
		Location string `json:"location"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.svc.VerifyProof(r.Context(), req.ProofID, adminID(r.Context()), req.Notes, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"killer_id":      report.KillerID,
		"victim_id":      report.VictimID,
		"winner_id":      report.WinnerID,
		"bounty_claimed": report.BountyClaimed,
		"badges_awarded": report.BadgesAwarded,
		"reassigned":     report.Reassigned,
	})
}

func (h *Handler) handleRejectProof(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ProofID string `json:"proof_id"`
		Notes   string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RejectProof(r.Context(), req.ProofID, adminID(r.Context()), req.Notes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	overview, err := h.svc.GameOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	leaders := make([]leaderPayload, 0, len(overview.Leaders))
	for _, entry := range overview.Leaders {
		leaders = append(leaders, leaderPayload{
			PlayerID: entry.PlayerID,
			Name:     entry.Name,
			Group:    entry.Group,
			Alive:    entry.Alive,
			Kills:    entry.Kills,
			Streak:   entry.Streak,
			Badges:   entry.Badges,
		})
	}
	var bounty any
	if overview.State.Bounty != nil {
		bounty = map[string]any{
			"target": overview.State.Bounty.TargetName,
			"prize":  overview.State.Bounty.Prize,
			"set_at": overview.State.Bounty.SetAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"started":    overview.State.Started,
		"purge_mode": overview.State.PurgeMode,
		"winner_id":  overview.State.WinnerID,
		"bounty":     bounty,
		"stats": map[string]int64{
			"players":        overview.Stats.PlayerCount,
			"alive":          overview.Stats.AliveCount,
			"eliminations":   overview.Stats.EliminationCount,
			"groups":         overview.Stats.GroupCount,
			"pending_proofs": overview.Stats.PendingProofs,
		},
		"leaders": leaders,
	})
}

func (h *Handler) handleDomination(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	report, err := h.svc.CheckClassDomination(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dominant": report.Dominant,
		"group":    report.Group,
		"alive":    report.Alive,
	})
}
