package endfield

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeAuthServers stands up the account service and portal endpoints backed
// by configurable responses.
type fakeAuthServers struct {
	account *httptest.Server
	portal  *httptest.Server

	basicStatus int
	grantStatus int
	credCode    int

	grantBodies []map[string]interface{}
	credBodies  []map[string]interface{}
}

func newFakeAuthServers(t *testing.T) *fakeAuthServers {
	t.Helper()
	f := &fakeAuthServers{}

	f.account = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/user/info/v1/basic"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": f.basicStatus,
				"msg":    statusMsg(f.basicStatus),
				"data":   map[string]interface{}{"hgId": "hg-123", "nickname": "doctor"},
			})
		case r.URL.Path == "/user/oauth2/v2/grant":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.grantBodies = append(f.grantBodies, body)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": f.grantStatus,
				"msg":    statusMsg(f.grantStatus),
				"data":   map[string]interface{}{"uid": "u-1", "code": "grant-code"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.account.Close)

	f.portal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/web/v1/user/auth/generate_cred_by_code" {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.credBodies = append(f.credBodies, body)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    f.credCode,
			"message": statusMsg(f.credCode),
			"data": map[string]interface{}{
				"cred":   "cred-abc",
				"token":  "secret-xyz",
				"userId": "user-9",
			},
		})
	}))
	t.Cleanup(f.portal.Close)

	return f
}

func statusMsg(code int) string {
	if code == 0 {
		return "OK"
	}
	return "upstream rejected"
}

func (f *fakeAuthServers) exchanger() *Exchanger {
	return NewExchanger(WithExchangerBaseURLs(f.account.URL, f.portal.URL))
}

func TestExchangerExchange(t *testing.T) {
	f := newFakeAuthServers(t)

	creds, err := f.exchanger().Exchange(context.Background(), "a-perfectly-long-account-token")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if creds.Cred != "cred-abc" {
		t.Errorf("Cred = %q, want %q", creds.Cred, "cred-abc")
	}
	if creds.SigningSecret != "secret-xyz" {
		t.Errorf("SigningSecret = %q, want %q", creds.SigningSecret, "secret-xyz")
	}
	if creds.UserID != "user-9" {
		t.Errorf("UserID = %q, want %q", creds.UserID, "user-9")
	}
	if creds.HgID != "hg-123" {
		t.Errorf("HgID = %q, want %q", creds.HgID, "hg-123")
	}

	if len(f.grantBodies) != 1 {
		t.Fatalf("grant called %d times, want 1", len(f.grantBodies))
	}
	if got := f.grantBodies[0]["appCode"]; got != oauthAppCode {
		t.Errorf("grant appCode = %v, want %v", got, oauthAppCode)
	}
	if len(f.credBodies) != 1 {
		t.Fatalf("generate_cred called %d times, want 1", len(f.credBodies))
	}
	if got := f.credBodies[0]["code"]; got != "grant-code" {
		t.Errorf("generate_cred code = %v, want %q", got, "grant-code")
	}
	if got := f.credBodies[0]["kind"]; got != float64(1) {
		t.Errorf("generate_cred kind = %v, want 1", got)
	}
}

func TestExchangerExchangeDecodesPercentEncodedToken(t *testing.T) {
	var seenToken string
	account := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/user/info/v1/basic") {
			seenToken = r.URL.Query().Get("token")
		}
		// Fail step1 on purpose; only the forwarded token matters here.
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 1, "msg": "nope"})
	}))
	defer account.Close()

	e := NewExchanger(WithExchangerBaseURLs(account.URL, account.URL))
	_, _ = e.Exchange(context.Background(), "token%3Dwith%2Bencoded")

	if seenToken != "token=with+encoded" {
		t.Errorf("forwarded token = %q, want decoded form", seenToken)
	}
}

func TestExchangerExchangeStepFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fakeAuthServers)
		wantStep string
	}{
		{"basic info rejected", func(f *fakeAuthServers) { f.basicStatus = 1 }, "step1"},
		{"grant rejected", func(f *fakeAuthServers) { f.grantStatus = 403 }, "step2"},
		{"cred generation rejected", func(f *fakeAuthServers) { f.credCode = 10000 }, "step3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAuthServers(t)
			tt.mutate(f)

			_, err := f.exchanger().Exchange(context.Background(), "a-perfectly-long-account-token")
			if err == nil {
				t.Fatal("Exchange() error = nil, want step error")
			}

			var stepErr *OAuthStepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("Exchange() error type = %T, want *OAuthStepError", err)
			}
			if stepErr.Step != tt.wantStep {
				t.Errorf("failed step = %q, want %q", stepErr.Step, tt.wantStep)
			}
		})
	}
}

func TestExchangerExchangeAbortsOnFirstFailure(t *testing.T) {
	f := newFakeAuthServers(t)
	f.basicStatus = 1

	_, err := f.exchanger().Exchange(context.Background(), "a-perfectly-long-account-token")
	if err == nil {
		t.Fatal("Exchange() error = nil, want step1 error")
	}
	if len(f.grantBodies) != 0 {
		t.Errorf("grant called %d times after step1 failure, want 0", len(f.grantBodies))
	}
	if len(f.credBodies) != 0 {
		t.Errorf("generate_cred called %d times after step1 failure, want 0", len(f.credBodies))
	}
}
