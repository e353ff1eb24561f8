package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/app/economy"
	"github.com/sureshield/coinledger/internal/auth"
	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/ratelimit"
	"github.com/sureshield/coinledger/internal/infra/sqlite"
)

type testStack struct {
	db      *sqlite.DB
	auth    *auth.Manager
	server  *Server
	handler http.Handler
	admin   *economy.AdminService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	limiter := ratelimit.New(ratelimit.NewMemoryStore())
	wallets := economy.NewWalletService(db, log, 10_000)
	earn := economy.NewEarnService(wallets, db, db, limiter, log)
	redemption := economy.NewRedemptionService(db, log, 5, 10_000)
	admin := economy.NewAdminService(wallets, log)

	authMgr := auth.NewManager("test-secret")
	srv := NewServer(&EconomyAPI{
		Wallet:     wallets,
		Earn:       earn,
		Redemption: redemption,
		Admin:      admin,
		Log:        log,
	}, authMgr, log)

	return &testStack{db: db, auth: authMgr, server: srv, handler: srv.Handler(), admin: admin}
}

func (ts *testStack) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := ts.auth.GenerateToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return tok
}

func (ts *testStack) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestStack(t)
	w := ts.request(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	ts := newTestStack(t)
	w := ts.request(t, http.MethodGet, "/api/coins/balance", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	ts := newTestStack(t)
	w := ts.request(t, http.MethodGet, "/api/coins/balance", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestEarn_HappyPath(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	if err := ts.db.UpsertRule(ctx, domain.EarnRule{TaskType: domain.ReasonSignUp, CoinAmount: 100, MaxPerDay: 1, IsActive: true}); err != nil {
		t.Fatalf("UpsertRule() error: %v", err)
	}

	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodPost, "/api/coins/earn", tok, map[string]any{"reason": "SIGN_UP"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	wallet, ok := body["wallet"].(map[string]any)
	if !ok {
		t.Fatalf("response missing wallet: %v", body)
	}
	if wallet["balance"].(float64) != 100 {
		t.Errorf("balance = %v, want 100", wallet["balance"])
	}
}

func TestEarn_UnknownReason(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodPost, "/api/coins/earn", tok, map[string]any{"reason": "LOTTERY"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEarn_NoRuleIs404(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodPost, "/api/coins/earn", tok, map[string]any{"reason": "REFERRAL"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBalance_Shape(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "user-1", auth.RoleUser)

	w := ts.request(t, http.MethodGet, "/api/coins/balance", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	for _, key := range []string{"wallet", "transactions", "earn_rules"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	// A fresh user gets an empty history, never null.
	if txs, ok := body["transactions"].([]any); !ok || len(txs) != 0 {
		t.Errorf("transactions = %v, want empty array", body["transactions"])
	}
}

func TestRedeem_Flow(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	itemID, err := ts.db.UpsertRewardItem(ctx, domain.RewardItem{Name: "voucher", CoinCost: 60, Stock: 5, MaxPerDay: 3, IsAvailable: true, IsActive: true})
	if err != nil {
		t.Fatalf("UpsertRewardItem() error: %v", err)
	}
	admToken := ts.token(t, "admin-1", auth.RoleAdmin)
	ts.request(t, http.MethodPost, "/api/admin/coins", admToken, map[string]any{
		"action": "credit", "user_id": "user-1", "amount": 100,
	})

	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodPost, "/api/coins/redeem", tok, map[string]any{"reward_item_id": itemID})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	wallet := body["wallet"].(map[string]any)
	if wallet["balance"].(float64) != 40 {
		t.Errorf("balance = %v, want 40", wallet["balance"])
	}

	// Second purchase overdraws: 40 < 60.
	w = ts.request(t, http.MethodPost, "/api/coins/redeem", tok, map[string]any{"reward_item_id": itemID})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestRewards_List(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	if _, err := ts.db.UpsertRewardItem(ctx, domain.RewardItem{Name: "voucher", CoinCost: 60, Stock: 5, MaxPerDay: 3, IsAvailable: true, IsActive: true}); err != nil {
		t.Fatalf("UpsertRewardItem() error: %v", err)
	}

	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodGet, "/api/coins/rewards", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	rewards, ok := body["rewards"].([]any)
	if !ok || len(rewards) != 1 {
		t.Errorf("rewards = %v, want 1 item", body["rewards"])
	}
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "user-1", auth.RoleUser)
	w := ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "credit", "user_id": "user-2", "amount": 10,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAdmin_Adjust(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "admin-1", auth.RoleAdmin)

	w := ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "credit", "user_id": "user-1", "amount": 500,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("credit status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// Debit beyond balance is an expected, client-visible outcome.
	w = ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "debit", "user_id": "user-1", "amount": 501,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraft debit status = %d, want 422", w.Code)
	}

	w = ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "teleport", "user_id": "user-1", "amount": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
}

func TestAdmin_Batch(t *testing.T) {
	ts := newTestStack(t)
	tok := ts.token(t, "admin-1", auth.RoleAdmin)

	w := ts.request(t, http.MethodPost, "/api/admin/coins/batch", tok, map[string]any{
		"action": "credit", "user_ids": []string{"user-1", "user-2"}, "amount": 50,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["succeeded"].(float64) != 2 || body["failed"].(float64) != 0 {
		t.Errorf("succeeded = %v, failed = %v, want 2 and 0", body["succeeded"], body["failed"])
	}

	w = ts.request(t, http.MethodPost, "/api/admin/coins/batch", tok, map[string]any{
		"action": "credit", "user_ids": []string{}, "amount": 50,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty user_ids status = %d, want 400", w.Code)
	}
}

func TestThrottle_Returns429(t *testing.T) {
	ts := newTestStack(t)
	limiter := ratelimit.New(ratelimit.NewMemoryStore())
	ts.server.SetThrottle(limiter, 3, time.Minute)
	handler := ts.server.Handler()

	tok := ts.token(t, "user-1", auth.RoleUser)
	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/coins/balance", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 3 && last.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, last.Code)
		}
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request status = %d, want 429", last.Code)
	}
	if got := last.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want %q", got, "3")
	}
	if got := last.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want %q", got, "0")
	}

	// Another user is unaffected.
	other := ts.token(t, "user-2", auth.RoleUser)
	req := httptest.NewRequest(http.MethodGet, "/api/coins/balance", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", w.Code)
	}
}

func TestRefund_ViaAdminAPI(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	tok := ts.token(t, "admin-1", auth.RoleAdmin)

	ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "credit", "user_id": "user-1", "amount": 100,
	})
	spendEntry, _, err := ts.admin.Debit(ctx, "user-1", 30, "", "admin-1")
	if err != nil {
		t.Fatalf("Debit() error: %v", err)
	}

	w := ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "refund", "transaction_id": spendEntry.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refund status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	wallet := body["wallet"].(map[string]any)
	if wallet["balance"].(float64) != 100 {
		t.Errorf("balance = %v, want 100", wallet["balance"])
	}

	// Refunding the same entry twice is a conflict.
	w = ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "refund", "transaction_id": spendEntry.ID,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("second refund status = %d, want 409", w.Code)
	}

	// Unknown transaction is a 404.
	w = ts.request(t, http.MethodPost, "/api/admin/coins", tok, map[string]any{
		"action": "refund", "transaction_id": "no-such-entry",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing transaction status = %d, want 404", w.Code)
	}
}
