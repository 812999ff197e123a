package rest

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/manhuntgame/manhunt/internal/services/game/admingrant"
	"github.com/manhuntgame/manhunt/internal/services/game/app"
	"github.com/manhuntgame/manhunt/internal/services/game/storage/sqlite"
)

func newTestHandler(t *testing.T, adminAuth *admingrant.Config) http.Handler {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ids := 0
	newID := func() string {
		ids++
		return fmt.Sprintf("id-%02d", ids)
	}
	svc := app.NewService(store, newID,
		app.WithClock(func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) }),
		app.WithSeedSource(func() int64 { return 7 }),
	)
	return NewHandler(svc, adminAuth)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func joinFour(t *testing.T, h http.Handler) {
	t.Helper()
	for _, spec := range [][2]string{{"alice", "red"}, {"bob", "blue"}, {"carol", "red"}, {"dave", "blue"}} {
		rec := doJSON(t, h, http.MethodPost, "/join", map[string]string{
			"name":  spec[0],
			"group": spec[1],
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("join %s: status %d body %s", spec[0], rec.Code, rec.Body.String())
		}
	}
}

func TestJoinReturnsPlayer(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/join", map[string]string{
		"name":  "alice",
		"group": "red",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp struct {
		Player  playerPayload `json:"player"`
		Message string        `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if resp.Player.Name != "alice" || resp.Player.Group != "red" {
		t.Fatalf("player = %+v", resp.Player)
	}
	if !resp.Player.Alive {
		t.Fatal("new player should be alive")
	}
	if resp.Message == "" {
		t.Fatal("expected a welcome message")
	}
}

func TestJoinRejectsWrongMethod(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doJSON(t, h, http.MethodGet, "/join", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow = %q, want POST", allow)
	}
}

func TestJoinDuplicateNameMapsToConflict(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)

	rec := doJSON(t, h, http.MethodPost, "/join", map[string]string{
		"name":  " Alice ",
		"group": "blue",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusConflict, rec.Body.String())
	}
	var resp struct {
		Error errorPayload `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error.Code != "PLAYER_NAME_ALREADY_TAKEN" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestStartAndTarget(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)

	rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/target?name=alice", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("target: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Player playerPayload `json:"player"`
		Target string        `json:"target"`
	}
	decodeBody(t, rec, &resp)
	if resp.Target == "" {
		t.Fatal("expected an assigned target")
	}
	if resp.Target == "alice" {
		t.Fatal("player must not be their own target")
	}
}

func TestStartWithOneGroupFails(t *testing.T) {
	h := newTestHandler(t, nil)
	for _, name := range []string{"alice", "bob"} {
		rec := doJSON(t, h, http.MethodPost, "/join", map[string]string{
			"name":  name,
			"group": "red",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("join: status %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	var resp struct {
		Error errorPayload `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error.Code != "INSUFFICIENT_GROUPS" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestProofSubmitVerifyFlow(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/target?name=alice", nil, nil)
	var targetResp struct {
		Target string `json:"target"`
	}
	decodeBody(t, rec, &targetResp)

	rec = doJSON(t, h, http.MethodPost, "/proofs", map[string]string{
		"submitter": "alice",
		"target":    targetResp.Target,
		"media_url": "https://media.example/tag.jpg",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var submitResp struct {
		Proof proofPayload `json:"proof"`
	}
	decodeBody(t, rec, &submitResp)
	if submitResp.Proof.Status != "pending" {
		t.Fatalf("status = %q, want pending", submitResp.Proof.Status)
	}

	rec = doJSON(t, h, http.MethodGet, "/admin/proofs", nil, nil)
	var pendingResp struct {
		Proofs []proofPayload `json:"proofs"`
	}
	decodeBody(t, rec, &pendingResp)
	if len(pendingResp.Proofs) != 1 {
		t.Fatalf("pending proofs = %d, want 1", len(pendingResp.Proofs))
	}

	rec = doJSON(t, h, http.MethodPost, "/admin/proofs/verify", map[string]string{
		"proof_id": submitResp.Proof.ID,
		"location": "library",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d body %s", rec.Code, rec.Body.String())
	}
	var verifyResp struct {
		VictimID      string   `json:"victim_id"`
		BadgesAwarded []string `json:"badges_awarded"`
	}
	decodeBody(t, rec, &verifyResp)
	if verifyResp.VictimID == "" {
		t.Fatal("expected a victim id")
	}

	rec = doJSON(t, h, http.MethodGet, "/target?name="+targetResp.Target, nil, nil)
	var victimView struct {
		Player playerPayload `json:"player"`
	}
	decodeBody(t, rec, &victimView)
	if victimView.Player.Alive {
		t.Fatal("victim should be eliminated")
	}
}

func TestRejectProofLeavesVictimAlive(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/target?name=alice", nil, nil)
	var targetResp struct {
		Target string `json:"target"`
	}
	decodeBody(t, rec, &targetResp)

	rec = doJSON(t, h, http.MethodPost, "/proofs", map[string]string{
		"submitter": "alice",
		"target":    targetResp.Target,
	}, nil)
	var submitResp struct {
		Proof proofPayload `json:"proof"`
	}
	decodeBody(t, rec, &submitResp)

	rec = doJSON(t, h, http.MethodPost, "/admin/proofs/reject", map[string]string{
		"proof_id": submitResp.Proof.ID,
		"notes":    "blurry photo",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/target?name="+targetResp.Target, nil, nil)
	var view struct {
		Player playerPayload `json:"player"`
	}
	decodeBody(t, rec, &view)
	if !view.Player.Alive {
		t.Fatal("victim must stay alive after a rejection")
	}
}

func TestOverviewAndDomination(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/admin/overview", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: status %d body %s", rec.Code, rec.Body.String())
	}
	var overview struct {
		Started bool `json:"started"`
		Stats   struct {
			Players int64 `json:"players"`
			Alive   int64 `json:"alive"`
			Groups  int64 `json:"groups"`
		} `json:"stats"`
		Leaders []leaderPayload `json:"leaders"`
	}
	decodeBody(t, rec, &overview)
	if !overview.Started {
		t.Fatal("overview should report a started game")
	}
	if overview.Stats.Players != 4 || overview.Stats.Alive != 4 || overview.Stats.Groups != 2 {
		t.Fatalf("stats = %+v", overview.Stats)
	}
	if len(overview.Leaders) != 4 {
		t.Fatalf("leaders = %d, want 4", len(overview.Leaders))
	}

	rec = doJSON(t, h, http.MethodGet, "/admin/domination", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("domination: status %d", rec.Code)
	}
	var dom struct {
		Dominant bool `json:"dominant"`
	}
	decodeBody(t, rec, &dom)
	if dom.Dominant {
		t.Fatal("two live groups must not report domination")
	}
}

func TestBountySetAndClear(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/admin/bounty", map[string]string{
		"target": "bob",
		"prize":  "golden dart",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("set bounty: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/admin/overview", nil, nil)
	var overview struct {
		Bounty *struct {
			Target string `json:"target"`
		} `json:"bounty"`
	}
	decodeBody(t, rec, &overview)
	if overview.Bounty == nil || overview.Bounty.Target != "bob" {
		t.Fatalf("bounty = %+v", overview.Bounty)
	}

	rec = doJSON(t, h, http.MethodDelete, "/admin/bounty", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear bounty: status %d", rec.Code)
	}
}

func TestRemovePlayer(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)

	rec := doJSON(t, h, http.MethodPost, "/admin/players/remove", map[string]string{
		"name": "dave",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/admin/players", nil, nil)
	var resp struct {
		Players []playerPayload `json:"players"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(resp.Players))
	}
}

func TestAdminRoutesRequireGrant(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := &admingrant.Config{
		Issuer:   "manhunt",
		Audience: "manhunt-admin",
		Key:      pub,
	}
	h := newTestHandler(t, auth)

	rec := doJSON(t, h, http.MethodGet, "/admin/players", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doJSON(t, h, http.MethodGet, "/admin/players", nil, map[string]string{
		"Authorization": "Bearer not-a-grant",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage grant: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	grant, err := admingrant.Issue(priv, "manhunt", "manhunt-admin", "admin-1", "jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue grant: %v", err)
	}
	rec = doJSON(t, h, http.MethodGet, "/admin/players", nil, map[string]string{
		"Authorization": "Bearer " + grant,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid grant: status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyRecordsReviewerFromGrant(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := &admingrant.Config{Issuer: "manhunt", Audience: "manhunt-admin", Key: pub}
	h := newTestHandler(t, auth)

	grant, err := admingrant.Issue(priv, "manhunt", "manhunt-admin", "gamemaster", "jti-2", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue grant: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + grant}

	joinFourAuthless := func() {
		for _, spec := range [][2]string{{"alice", "red"}, {"bob", "blue"}, {"carol", "red"}, {"dave", "blue"}} {
			rec := doJSON(t, h, http.MethodPost, "/join", map[string]string{"name": spec[0], "group": spec[1]}, nil)
			if rec.Code != http.StatusCreated {
				t.Fatalf("join: status %d", rec.Code)
			}
		}
	}
	joinFourAuthless()
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, headers); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/target?name=alice", nil, nil)
	var targetResp struct {
		Target string `json:"target"`
	}
	decodeBody(t, rec, &targetResp)

	rec = doJSON(t, h, http.MethodPost, "/proofs", map[string]string{
		"submitter": "alice",
		"target":    targetResp.Target,
	}, nil)
	var submitResp struct {
		Proof proofPayload `json:"proof"`
	}
	decodeBody(t, rec, &submitResp)

	rec = doJSON(t, h, http.MethodPost, "/admin/proofs/reject", map[string]string{
		"proof_id": submitResp.Proof.ID,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownVictimProofMapsToNotFound(t *testing.T) {
	h := newTestHandler(t, nil)
	joinFour(t, h)
	if rec := doJSON(t, h, http.MethodPost, "/admin/start", map[string]string{}, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/proofs", map[string]string{
		"submitter": "alice",
		"target":    "nobody",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var submitResp struct {
		Proof proofPayload `json:"proof"`
	}
	decodeBody(t, rec, &submitResp)

	rec = doJSON(t, h, http.MethodPost, "/admin/proofs/verify", map[string]string{
		"proof_id": submitResp.Proof.ID,
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/join", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
