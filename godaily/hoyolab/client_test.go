package hoyolab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const testCookie = "ltoken_v2=abc; ltuid_v2=123; account_id=123; cookie_token_v2=xyz"

func TestValidateCookie(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   CookieCheck
	}{
		{
			"full cookie",
			testCookie,
			CookieCheck{HasLToken: true, HasCookieToken: true, HasAccountID: true},
		},
		{
			"check-in only",
			"ltoken=abc; account_id=123",
			CookieCheck{HasLToken: true, HasCookieToken: false, HasAccountID: true},
		},
		{
			"garbage",
			"session=whatever",
			CookieCheck{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateCookie(tt.cookie); got != tt.want {
				t.Errorf("ValidateCookie() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// claimServer serves per-path claim responses for a synthetic games table.
type claimServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]apiResponse
	requests  []*http.Request
}

func newClaimServer(t *testing.T) *claimServer {
	t.Helper()
	s := &claimServer{responses: map[string]apiResponse{}}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(context.Background()))
		resp, ok := s.responses[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			resp = apiResponse{Retcode: 0, Message: "OK"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *claimServer) games() map[string]Game {
	games := make(map[string]Game, len(Games))
	for key, game := range Games {
		game.URL = s.srv.URL + "/" + key + "/sign"
		games[key] = game
	}
	return games
}

func (s *claimServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func noDelay(ctx context.Context, d time.Duration) {}

func TestClientClaimGame(t *testing.T) {
	tests := []struct {
		name        string
		response    apiResponse
		wantSuccess bool
		wantAlready bool
		wantMessage string
	}{
		{
			"fresh claim",
			apiResponse{Retcode: 0, Message: "OK"},
			true, false, "Claimed successfully!",
		},
		{
			"already claimed retcode",
			apiResponse{Retcode: retcodeAlreadyClaimed, Message: "Traveler, you've already checked in today~"},
			true, true, "Already claimed today",
		},
		{
			"already claimed message only",
			apiResponse{Retcode: -100, Message: "ALREADY claimed"},
			true, true, "Already claimed today",
		},
		{
			"captcha risk",
			apiResponse{Retcode: -1, Message: "error", Data: json.RawMessage(`{"gt_result":{"is_risk":true}}`)},
			false, false, "CAPTCHA required - please claim manually",
		},
		{
			"plain failure",
			apiResponse{Retcode: -100, Message: "Not logged in"},
			false, false, "Not logged in",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newClaimServer(t)
			s.responses["/genshin/sign"] = tt.response

			c := NewClient(testCookie, WithGames(s.games()), WithDelay(noDelay))
			result := c.ClaimGame(context.Background(), "genshin")

			if result.Success != tt.wantSuccess || result.AlreadyClaimed != tt.wantAlready {
				t.Errorf("ClaimGame() = %+v, want success=%v already=%v", result, tt.wantSuccess, tt.wantAlready)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", result.Message, tt.wantMessage)
			}
			if result.Game != Games["genshin"].Name {
				t.Errorf("Game = %q, want %q", result.Game, Games["genshin"].Name)
			}
		})
	}
}

func TestClientClaimGameSendsCookie(t *testing.T) {
	s := newClaimServer(t)
	c := NewClient(testCookie, WithGames(s.games()), WithDelay(noDelay))

	c.ClaimGame(context.Background(), "genshin")

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(s.requests))
	}
	req := s.requests[0]
	if got := req.Header.Get("Cookie"); got != testCookie {
		t.Errorf("Cookie header = %q, want stored cookie", got)
	}
	if !strings.Contains(req.URL.RawQuery, "act_id="+Games["genshin"].ActID) {
		t.Errorf("query = %q, missing act_id", req.URL.RawQuery)
	}
	ds := req.Header.Get("DS")
	if ds == "" {
		t.Fatal("claim request carried no DS header")
	}
	parts := strings.Split(ds, ",")
	if len(parts) != 3 || len(parts[1]) != 6 || len(parts[2]) != 32 {
		t.Errorf("DS = %q, want timestamp,random,md5hash", ds)
	}
}

func TestClientClaimGameRegeneratesDS(t *testing.T) {
	s := newClaimServer(t)
	c := NewClient(testCookie, WithGames(s.games()), WithDelay(noDelay))

	c.ClaimGame(context.Background(), "genshin")
	c.ClaimGame(context.Background(), "genshin")

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(s.requests))
	}
	if s.requests[0].Header.Get("DS") == s.requests[1].Header.Get("DS") {
		t.Error("DS header repeated across requests, want a fresh value per request")
	}
}

func TestClientClaimGameUnknownKey(t *testing.T) {
	c := NewClient(testCookie, WithDelay(noDelay))
	result := c.ClaimGame(context.Background(), "nosuchgame")
	if result.Success {
		t.Errorf("ClaimGame(unknown) = %+v, want failure", result)
	}
}

func TestClientClaimAll(t *testing.T) {
	s := newClaimServer(t)

	var delays int
	c := NewClient(testCookie, WithGames(s.games()),
		WithDelay(func(ctx context.Context, d time.Duration) { delays++ }))

	enabled := map[string]bool{"genshin": true, "starRail": true, "zenlessZoneZero": true}
	results := c.ClaimAll(context.Background(), enabled)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	// Pauses go between games, never before the first.
	if delays != 2 {
		t.Errorf("delays = %d for 3 games, want 2", delays)
	}
	if s.requestCount() != 3 {
		t.Errorf("requests = %d, want 3", s.requestCount())
	}
}

func TestClientClaimAllSkipsDisabledGames(t *testing.T) {
	s := newClaimServer(t)
	c := NewClient(testCookie, WithGames(s.games()), WithDelay(noDelay))

	results := c.ClaimAll(context.Background(), map[string]bool{"genshin": true, "starRail": false})
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Game != Games["genshin"].Name {
		t.Errorf("Game = %q, want genshin only", results[0].Game)
	}
}

func TestClientClaimAllNothingEnabled(t *testing.T) {
	s := newClaimServer(t)
	c := NewClient(testCookie, WithGames(s.games()), WithDelay(noDelay))

	if results := c.ClaimAll(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %d with no enabled games, want 0", len(results))
	}
	if s.requestCount() != 0 {
		t.Errorf("requests = %d with no enabled games, want 0", s.requestCount())
	}
}

func TestClientRedeemCodeRequiresCookieToken(t *testing.T) {
	c := NewClient("ltoken=abc; account_id=123", WithDelay(noDelay))
	result := c.RedeemCode(context.Background(), "genshin", GameAccount{GameUID: "1", Region: "os_asia"}, "CODE")

	if result.Success {
		t.Fatalf("RedeemCode() = %+v, want failure without cookie_token", result)
	}
	if !strings.Contains(result.Message, "cookie_token") {
		t.Errorf("Message = %q, want cookie_token hint", result.Message)
	}
}

func TestClientRedeemCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("DS") == "" {
			t.Error("DS header missing on redemption request")
		}
		if r.Header.Get("x-rpc-client_type") != "5" {
			t.Errorf("x-rpc-client_type = %q, want 5", r.Header.Get("x-rpc-client_type"))
		}
		q := r.URL.Query()
		if q.Get("cdkey") != "GENSHINGIFT" || q.Get("uid") != "800000001" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(apiResponse{Retcode: 0, Message: "OK"})
	}))
	defer srv.Close()

	c := NewClient(testCookie,
		WithRedeemBaseURLs(map[string]string{"genshin": srv.URL}),
		WithDelay(noDelay))

	account := GameAccount{GameUID: "800000001", Region: "os_asia", Nickname: "Traveler"}
	result := c.RedeemCode(context.Background(), "genshin", account, "GENSHINGIFT")

	if !result.Success {
		t.Errorf("RedeemCode() = %+v, want success", result)
	}
}
