package endfield

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/credcache"
)

func TestValidateParams(t *testing.T) {
	longToken := "a-token-definitely-longer-than-twenty"

	tests := []struct {
		name   string
		token  string
		gameID string
		server string
		want   bool
	}{
		{"valid asia", longToken, "123456789", "2", true},
		{"valid americas", longToken, "123456789", "3", true},
		{"empty server defaults later", longToken, "123456789", "", true},
		{"short token", "short", "123456789", "2", false},
		{"non-numeric game id", longToken, "abc123", "2", false},
		{"unknown server", longToken, "123456789", "7", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateParams(tt.token, tt.gameID, tt.server)
			if got.Valid != tt.want {
				t.Errorf("ValidateParams() valid = %v (%s), want %v", got.Valid, got.Message, tt.want)
			}
			if !got.Valid && got.Message == "" {
				t.Error("ValidateParams() rejected without a message")
			}
		})
	}
}

func TestClientGameRole(t *testing.T) {
	c := NewClient("token", "12345", "3", nil, nil)
	if got := c.GameRole(); got != "3_12345_3" {
		t.Errorf("GameRole() = %q, want %q", got, "3_12345_3")
	}

	// Empty server falls back to Asia.
	c = NewClient("token", "12345", "", nil, nil)
	if got := c.GameRole(); got != "3_12345_2" {
		t.Errorf("GameRole() with default server = %q, want %q", got, "3_12345_2")
	}
}

type attendanceServer struct {
	srv      *httptest.Server
	claims   int
	response map[string]interface{}
	status   int
	lastReq  *http.Request
}

func newAttendanceServer(t *testing.T) *attendanceServer {
	t.Helper()
	a := &attendanceServer{
		status: http.StatusOK,
		response: map[string]interface{}{
			"code": 0,
			"msg":  "OK",
			"data": map[string]interface{}{
				"awardIds": []map[string]string{{"id": "res-1"}},
				"resourceInfoMap": map[string]interface{}{
					"res-1": map[string]interface{}{"id": "res-1", "name": "Originium", "count": 2},
				},
			},
		},
	}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.claims++
		a.lastReq = r.Clone(context.Background())
		w.WriteHeader(a.status)
		json.NewEncoder(w).Encode(a.response)
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func testClient(t *testing.T, f *fakeAuthServers, a *attendanceServer, cache *credcache.Cache) *Client {
	t.Helper()
	return NewClient("a-perfectly-long-account-token", "123456789", "2", cache, f.exchanger(),
		WithAttendanceURL(a.srv.URL+"/api/v1/game/endfield/attendance"))
}

func TestClientClaim(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)
	cache := credcache.New(25 * time.Minute)

	c := testClient(t, f, a, cache)
	result := c.Claim(context.Background())

	if !result.Success || result.AlreadyClaimed {
		t.Fatalf("Claim() = %+v, want fresh success", result)
	}
	if len(result.Rewards) != 1 || result.Rewards[0].Name != "Originium" || result.Rewards[0].Count != 2 {
		t.Errorf("Rewards = %+v, want Originium x2", result.Rewards)
	}

	// The exchange must run exactly once and the claim must carry the
	// exchanged credential plus a well-formed signature.
	if len(f.credBodies) != 1 {
		t.Errorf("OAuth exchanges = %d, want 1", len(f.credBodies))
	}
	if got := a.lastReq.Header.Get("cred"); got != "cred-abc" {
		t.Errorf("cred header = %q, want %q", got, "cred-abc")
	}
	if got := a.lastReq.Header.Get("sk-game-role"); got != "3_123456789_2" {
		t.Errorf("sk-game-role header = %q, want %q", got, "3_123456789_2")
	}
	ts := a.lastReq.Header.Get("timestamp")
	if ts == "" {
		t.Fatal("timestamp header missing")
	}
	wantSign := SignV2("/api/v1/game/endfield/attendance", ts, Platform, VersionName, "secret-xyz")
	if got := a.lastReq.Header.Get("sign"); got != wantSign {
		t.Errorf("sign header = %q, want %q", got, wantSign)
	}
}

func TestClientClaimReusesCachedCredential(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)
	cache := credcache.New(25 * time.Minute)

	c := testClient(t, f, a, cache)
	for i := 0; i < 3; i++ {
		if result := c.Claim(context.Background()); !result.Success {
			t.Fatalf("Claim() #%d = %+v, want success", i+1, result)
		}
	}

	if len(f.credBodies) != 1 {
		t.Errorf("OAuth exchanges = %d after 3 claims, want 1 (cache must serve the rest)", len(f.credBodies))
	}
	if a.claims != 3 {
		t.Errorf("attendance calls = %d, want 3", a.claims)
	}
}

func TestClientClaimSecondCallIsIdempotent(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)
	cache := credcache.New(25 * time.Minute)

	c := testClient(t, f, a, cache)
	first := c.Claim(context.Background())
	if !first.Success || first.AlreadyClaimed {
		t.Fatalf("first Claim() = %+v, want fresh success", first)
	}

	// Upstream now reports the day as consumed.
	a.response = map[string]interface{}{
		"code": 1, "msg": "error",
		"data": map[string]interface{}{"hasToday": true},
	}
	second := c.Claim(context.Background())
	if !second.Success || !second.AlreadyClaimed {
		t.Fatalf("second Claim() = %+v, want already-claimed success", second)
	}
	if a.claims != 2 {
		t.Errorf("attendance calls = %d, want 2", a.claims)
	}
}

func TestClientClaimAlreadyClaimed(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
	}{
		{
			"hasToday flag",
			map[string]interface{}{"code": 1, "msg": "error", "data": map[string]interface{}{"hasToday": true}},
		},
		{
			"known code",
			map[string]interface{}{"code": codeAlreadySigned, "msg": "error"},
		},
		{
			"message substring",
			map[string]interface{}{"code": 1, "msg": "You have Already signed in today"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAuthServers(t)
			a := newAttendanceServer(t)
			a.response = tt.response

			c := testClient(t, f, a, credcache.New(25*time.Minute))
			result := c.Claim(context.Background())

			if !result.Success || !result.AlreadyClaimed {
				t.Errorf("Claim() = %+v, want already-claimed success", result)
			}
		})
	}
}

func TestClientClaimAuthFailureCodes(t *testing.T) {
	for _, code := range []int{codeCredExpired, codeCredInvalid} {
		f := newFakeAuthServers(t)
		a := newAttendanceServer(t)
		a.response = map[string]interface{}{"code": code, "msg": "invalid cred"}

		c := testClient(t, f, a, credcache.New(25*time.Minute))
		result := c.Claim(context.Background())

		if result.Success || !result.AuthFailure {
			t.Errorf("Claim() with code %d = %+v, want auth failure", code, result)
		}
	}
}

func TestClientClaimNoCredentials(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)

	c := NewClient("", "123456789", "2", credcache.New(25*time.Minute), f.exchanger(),
		WithAttendanceURL(a.srv.URL+"/api/v1/game/endfield/attendance"))
	result := c.Claim(context.Background())

	if result.Success || !result.AuthFailure {
		t.Fatalf("Claim() without token = %+v, want auth failure", result)
	}
	if a.claims != 0 {
		t.Errorf("attendance called %d times without credentials, want 0", a.claims)
	}
}

func TestClientClaimExchangeFailure(t *testing.T) {
	f := newFakeAuthServers(t)
	f.grantStatus = 403
	a := newAttendanceServer(t)

	c := testClient(t, f, a, credcache.New(25*time.Minute))
	result := c.Claim(context.Background())

	if result.Success || !result.AuthFailure {
		t.Fatalf("Claim() with broken exchange = %+v, want auth failure", result)
	}
	if a.claims != 0 {
		t.Errorf("attendance called %d times after failed exchange, want 0", a.claims)
	}
}

func TestClientClaimHTTPError(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)
	a.status = http.StatusBadGateway
	a.response = map[string]interface{}{"code": 1, "msg": "bad gateway"}

	c := testClient(t, f, a, credcache.New(25*time.Minute))
	result := c.Claim(context.Background())

	if result.Success || result.AuthFailure {
		t.Fatalf("Claim() on HTTP 502 = %+v, want plain failure", result)
	}
	if result.Message != "HTTP 502: bad gateway" {
		t.Errorf("Message = %q, want %q", result.Message, "HTTP 502: bad gateway")
	}
}

func TestClientClaimHTTPErrorWithSuccessBody(t *testing.T) {
	f := newFakeAuthServers(t)
	a := newAttendanceServer(t)
	a.status = http.StatusBadGateway

	c := testClient(t, f, a, credcache.New(25*time.Minute))
	result := c.Claim(context.Background())

	// A stale code-0 body behind a broken proxy is not a completed claim.
	if result.Success {
		t.Fatalf("Claim() with code 0 on HTTP 502 = %+v, want failure", result)
	}
	if !strings.HasPrefix(result.Message, "HTTP 502") {
		t.Errorf("Message = %q, want HTTP 502 prefix", result.Message)
	}
}
