package endfield

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ellavondegurechaff/godaily/godaily/config"
)

// OAuthStepError names the exchange step that failed. The whole exchange
// aborts on the first failing step; there are no retries within one attempt.
type OAuthStepError struct {
	Step    string
	Message string
}

func (e *OAuthStepError) Error() string {
	return fmt.Sprintf("oauth %s failed: %s", e.Step, e.Message)
}

// Credentials is the short-lived signing triple produced by a successful
// exchange. The caller hands it to the credential cache; the exchanger itself
// keeps no state.
type Credentials struct {
	Cred          string
	SigningSecret string
	UserID        string
	HgID          string
}

// Exchanger performs the three-step token exchange against the Gryphline
// account service and the SKPORT portal.
type Exchanger struct {
	http           *http.Client
	accountBaseURL string
	portalBaseURL  string
}

type ExchangerOption func(*Exchanger)

func WithExchangerHTTPClient(hc *http.Client) ExchangerOption {
	return func(e *Exchanger) { e.http = hc }
}

// WithExchangerBaseURLs points both services at alternate hosts, used by
// tests.
func WithExchangerBaseURLs(accountBaseURL, portalBaseURL string) ExchangerOption {
	return func(e *Exchanger) {
		e.accountBaseURL = accountBaseURL
		e.portalBaseURL = portalBaseURL
	}
}

func NewExchanger(opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		http:           &http.Client{Timeout: config.AuxRequestTimeout},
		accountBaseURL: defaultAccountBaseURL,
		portalBaseURL:  defaultPortalBaseURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type basicInfoResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		HgID     string `json:"hgId"`
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
	} `json:"data"`
}

type grantCodeResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		UID  string `json:"uid"`
		Code string `json:"code"`
	} `json:"data"`
}

type generateCredResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Cred   string `json:"cred"`
		Token  string `json:"token"`
		UserID string `json:"userId"`
	} `json:"data"`
}

// Exchange turns a long-lived account token into short-lived signing
// credentials. Tokens pasted from browser cookies are often percent-encoded,
// so an encoded-looking token is decoded first.
func (e *Exchanger) Exchange(ctx context.Context, accountToken string) (*Credentials, error) {
	token := strings.TrimSpace(accountToken)
	if strings.Contains(token, "%") {
		if decoded, err := url.QueryUnescape(token); err == nil {
			token = decoded
		}
	}

	basic, err := e.getBasicInfo(ctx, token)
	if err != nil {
		return nil, &OAuthStepError{Step: "step1", Message: err.Error()}
	}
	if basic.Status != 0 {
		return nil, &OAuthStepError{Step: "step1", Message: stepMessage(basic.Msg, basic.Status)}
	}

	grant, err := e.grantCode(ctx, token)
	if err != nil {
		return nil, &OAuthStepError{Step: "step2", Message: err.Error()}
	}
	if grant.Status != 0 || grant.Data.Code == "" {
		return nil, &OAuthStepError{Step: "step2", Message: stepMessage(grant.Msg, grant.Status)}
	}

	cred, err := e.generateCred(ctx, grant.Data.Code)
	if err != nil {
		return nil, &OAuthStepError{Step: "step3", Message: err.Error()}
	}
	if cred.Code != 0 || cred.Data.Cred == "" {
		return nil, &OAuthStepError{Step: "step3", Message: stepMessage(cred.Message, cred.Code)}
	}

	return &Credentials{
		Cred:          cred.Data.Cred,
		SigningSecret: cred.Data.Token,
		UserID:        cred.Data.UserID,
		HgID:          basic.Data.HgID,
	}, nil
}

func stepMessage(msg string, code int) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("status %d", code)
}

func (e *Exchanger) getBasicInfo(ctx context.Context, token string) (*basicInfoResponse, error) {
	infoURL := e.accountBaseURL + "/user/info/v1/basic?token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var parsed basicInfoResponse
	if err := e.doJSON(req, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (e *Exchanger) grantCode(ctx context.Context, token string) (*grantCodeResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"token":   token,
		"appCode": oauthAppCode,
		"type":    0,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.accountBaseURL+"/user/oauth2/v2/grant", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var parsed grantCodeResponse
	if err := e.doJSON(req, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (e *Exchanger) generateCred(ctx context.Context, code string) (*generateCredResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"code": code,
		"kind": 1,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.portalBaseURL+"/web/v1/user/auth/generate_cred_by_code", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("platform", Platform)
	req.Header.Set("Referer", "https://www.skport.com/")
	req.Header.Set("Origin", "https://www.skport.com")

	var parsed generateCredResponse
	if err := e.doJSON(req, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (e *Exchanger) doJSON(req *http.Request, out interface{}) error {
	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("HTTP %d: unparseable response body", resp.StatusCode)
	}
	return nil
}
