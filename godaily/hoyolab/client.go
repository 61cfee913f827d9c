package hoyolab

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/config"
)

// ClaimResult is the normalized outcome of one per-game claim attempt.
// AlreadyClaimed implies Success.
type ClaimResult struct {
	Success        bool
	Game           string
	Message        string
	AlreadyClaimed bool
}

// RedeemResult is the outcome of one code redemption attempt.
type RedeemResult struct {
	Success bool
	Message string
}

// GameAccount is one bound game role as reported by the binding API.
type GameAccount struct {
	GameBiz    string `json:"game_biz"`
	Region     string `json:"region"`
	GameUID    string `json:"game_uid"`
	Nickname   string `json:"nickname"`
	Level      int    `json:"level"`
	RegionName string `json:"region_name"`
}

// CookieCheck reports which credential components a Hoyolab cookie carries.
// Daily check-in needs ltoken; code redemption additionally needs
// cookie_token with a matching account_id.
type CookieCheck struct {
	HasLToken      bool
	HasCookieToken bool
	HasAccountID   bool
}

func ValidateCookie(cookie string) CookieCheck {
	return CookieCheck{
		HasLToken:      strings.Contains(cookie, "ltoken"),
		HasCookieToken: strings.Contains(cookie, "cookie_token"),
		HasAccountID:   strings.Contains(cookie, "account_id"),
	}
}

type apiResponse struct {
	Retcode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type claimData struct {
	GtResult *struct {
		IsRisk bool `json:"is_risk"`
	} `json:"gt_result"`
}

// Client talks to the Hoyolab check-in and redemption APIs on behalf of one
// stored cookie.
type Client struct {
	token  string
	http   *http.Client
	games  map[string]Game
	redeem map[string]string
	delay  func(ctx context.Context, d time.Duration)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithGames overrides the game endpoint table, used by tests to point claims
// at a local server.
func WithGames(games map[string]Game) Option {
	return func(c *Client) { c.games = games }
}

func WithRedeemBaseURLs(urls map[string]string) Option {
	return func(c *Client) { c.redeem = urls }
}

// WithDelay overrides the inter-game pause.
func WithDelay(delay func(ctx context.Context, d time.Duration)) Option {
	return func(c *Client) { c.delay = delay }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:  token,
		http:   &http.Client{Timeout: config.ClaimRequestTimeout},
		games:  Games,
		redeem: redeemBaseURLs,
		delay:  sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// generateDS computes the per-request Dynamic Secret "timestamp,random,hash".
// It is mandatory on every signed call, regenerated per request and never
// cached.
func (c *Client) generateDS() string {
	t := time.Now().Unix()
	r := randomToken(6)
	sum := md5.Sum([]byte(fmt.Sprintf("salt=%s&t=%d&r=%s", dsSalt, t, r)))
	return fmt.Sprintf("%d,%s,%s", t, r, hex.EncodeToString(sum[:]))
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

func (c *Client) do(ctx context.Context, method, rawURL string, extra map[string]string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Cookie", c.token)
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("HTTP %d: unparseable response body", resp.StatusCode)
	}
	return &parsed, nil
}

// ClaimGame claims the daily reward for a single game key.
func (c *Client) ClaimGame(ctx context.Context, gameKey string) ClaimResult {
	game, ok := c.games[gameKey]
	if !ok {
		return ClaimResult{Success: false, Game: gameKey, Message: "Unknown game"}
	}

	claimURL := fmt.Sprintf("%s?lang=en-us&act_id=%s", game.URL, game.ActID)
	headers := map[string]string{"DS": c.generateDS()}
	for k, v := range game.ExtraHeaders {
		headers[k] = v
	}
	resp, err := c.do(ctx, http.MethodPost, claimURL, headers)
	if err != nil {
		return ClaimResult{Success: false, Game: game.Name, Message: err.Error()}
	}

	return normalizeClaimResponse(game.Name, resp)
}

// normalizeClaimResponse is the single point that interprets the upstream
// response into a ClaimResult. Already-claimed detection is multi-signal:
// known retcode or message substring.
func normalizeClaimResponse(gameName string, resp *apiResponse) ClaimResult {
	if resp.Retcode == 0 || resp.Message == "OK" {
		return ClaimResult{Success: true, Game: gameName, Message: "Claimed successfully!"}
	}

	if resp.Retcode == retcodeAlreadyClaimed || strings.Contains(strings.ToLower(resp.Message), "already") {
		return ClaimResult{
			Success:        true,
			Game:           gameName,
			Message:        "Already claimed today",
			AlreadyClaimed: true,
		}
	}

	if len(resp.Data) > 0 {
		var data claimData
		if err := json.Unmarshal(resp.Data, &data); err == nil &&
			data.GtResult != nil && data.GtResult.IsRisk {
			// risk control wants a captcha; retrying programmatically only
			// digs the hole deeper
			return ClaimResult{Success: false, Game: gameName, Message: "CAPTCHA required - please claim manually"}
		}
	}

	message := resp.Message
	if message == "" {
		message = "Unknown error"
	}
	return ClaimResult{Success: false, Game: gameName, Message: message}
}

// ClaimAll claims every enabled game sequentially with a fixed pause between
// games. The pause keeps Hoyolab's rate limiting off our backs and is not
// optional.
func (c *Client) ClaimAll(ctx context.Context, enabledGames map[string]bool) []ClaimResult {
	var results []ClaimResult

	for _, gameKey := range GameKeys {
		if !enabledGames[gameKey] {
			continue
		}

		if len(results) > 0 {
			c.delay(ctx, config.HoyolabInterGameDelay)
		}

		results = append(results, c.ClaimGame(ctx, gameKey))
	}

	return results
}

// ValidateToken performs a live check of the stored cookie against the
// Genshin daily info endpoint.
func (c *Client) ValidateToken(ctx context.Context) (bool, string) {
	resp, err := c.do(ctx, http.MethodGet,
		"https://sg-hk4e-api.hoyolab.com/event/sol/info?lang=en-us&act_id=e202102251931481", nil)
	if err != nil {
		return false, err.Error()
	}
	if resp.Retcode == 0 {
		return true, "Token valid"
	}
	if resp.Message != "" {
		return false, resp.Message
	}
	return false, "Invalid token"
}

// GameAccounts fetches the bound game roles for a game key's biz name.
func (c *Client) GameAccounts(ctx context.Context, gameKey string) ([]GameAccount, error) {
	game, ok := c.games[gameKey]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", gameKey)
	}

	bindingURL := "https://api-os-takumi.mihoyo.com/binding/api/getUserGameRolesByCookie?game_biz=" + game.BizName
	resp, err := c.do(ctx, http.MethodGet, bindingURL, nil)
	if err != nil {
		return nil, err
	}
	if resp.Retcode != 0 {
		return nil, fmt.Errorf("binding API retcode %d: %s", resp.Retcode, resp.Message)
	}

	var data struct {
		List []GameAccount `json:"list"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// RedeemCode redeems a gift code for one account. Redemption rides on a
// different cookie component than check-in, so the presence check happens
// before any network call.
func (c *Client) RedeemCode(ctx context.Context, gameKey string, account GameAccount, code string) RedeemResult {
	game, ok := c.games[gameKey]
	if !ok {
		return RedeemResult{Success: false, Message: "Unknown game"}
	}

	if !ValidateCookie(c.token).HasCookieToken {
		return RedeemResult{
			Success: false,
			Message: "Cookie missing `cookie_token`. Please get a fresh cookie from the official redemption page.",
		}
	}

	baseURL, ok := c.redeem[gameKey]
	if !ok {
		baseURL = defaultRedeemBaseURL
	}

	params := url.Values{}
	params.Set("uid", account.GameUID)
	params.Set("region", account.Region)
	params.Set("lang", "en")
	params.Set("cdkey", code)
	params.Set("game_biz", game.BizName)

	redeemURL := baseURL + "/common/apicdkey/api/webExchangeCdkeyHyl?" + params.Encode()
	headers := map[string]string{
		"x-rpc-app_version": "1.5.0",
		"x-rpc-client_type": "5",
		"x-rpc-language":    "en-us",
		"DS":                c.generateDS(),
	}

	resp, err := c.do(ctx, http.MethodGet, redeemURL, headers)
	if err != nil {
		return RedeemResult{Success: false, Message: err.Error()}
	}

	if resp.Retcode == 0 {
		return RedeemResult{Success: true, Message: "Redeemed successfully"}
	}
	return RedeemResult{Success: false, Message: resp.Message}
}
