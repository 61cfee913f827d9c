package endfield

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/credcache"
)

// ErrNoCredentials means neither a cached credential nor a long-lived token
// is available for this account.
var ErrNoCredentials = errors.New("no credentials available")

// Reward is one item from a successful check-in.
type Reward struct {
	ID    string
	Name  string
	Count int
	Icon  string
}

// ClaimResult is the normalized outcome of one claim attempt.
// AlreadyClaimed implies Success. AuthFailure hints that the stored account
// token needs a full re-setup, not just a cache refresh.
type ClaimResult struct {
	Success        bool
	AlreadyClaimed bool
	AuthFailure    bool
	Message        string
	Rewards        []Reward
}

// ValidationResult is the outcome of the pure parameter format check.
type ValidationResult struct {
	Valid   bool
	Message string
}

var numericID = regexp.MustCompile(`^\d+$`)

// ValidateParams checks user-supplied identity fields without touching the
// network.
func ValidateParams(token, gameID, server string) ValidationResult {
	if len(token) < minTokenLength {
		return ValidationResult{Valid: false, Message: "Invalid account token (too short)"}
	}
	if !numericID.MatchString(gameID) {
		return ValidationResult{Valid: false, Message: "Invalid Game ID (must be numbers only)"}
	}
	if server != "" {
		if _, ok := ServerNames[server]; !ok {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Invalid server (use 2 for %s or 3 for %s)", ServerNames["2"], ServerNames["3"]),
			}
		}
	}
	return ValidationResult{Valid: true}
}

// Client claims the daily Endfield reward for one account. Credentials come
// from the injected cache when fresh, otherwise from a full exchange.
type Client struct {
	accountToken  string
	gameID        string
	server        string
	cache         *credcache.Cache
	exchanger     *Exchanger
	http          *http.Client
	attendanceURL string
	now           func() time.Time
}

type ClientOption func(*Client)

func WithClientHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithAttendanceURL(u string) ClientOption {
	return func(c *Client) { c.attendanceURL = u }
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

func NewClient(accountToken, gameID, server string, cache *credcache.Cache, exchanger *Exchanger, opts ...ClientOption) *Client {
	if server == "" {
		server = "2"
	}
	c := &Client{
		accountToken:  accountToken,
		gameID:        gameID,
		server:        server,
		cache:         cache,
		exchanger:     exchanger,
		http:          &http.Client{Timeout: config.ClaimRequestTimeout},
		attendanceURL: defaultAttendanceURL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey identifies this account's slot in the credential cache.
func (c *Client) CacheKey() credcache.Key {
	return credcache.Key{AccountID: c.gameID, Server: c.server}
}

// GameRole builds the composite sk-game-role identity header.
func (c *Client) GameRole() string {
	return fmt.Sprintf("%s_%s_%s", Platform, c.gameID, c.server)
}

// resolveCredentials returns a fresh signing credential: cache hit when
// fresh, full exchange otherwise. A claim must never sign with an expired
// credential.
func (c *Client) resolveCredentials(ctx context.Context) (credcache.Entry, error) {
	key := c.CacheKey()
	if entry, ok := c.cache.Get(key); ok {
		return entry, nil
	}

	if c.accountToken == "" {
		return credcache.Entry{}, ErrNoCredentials
	}

	creds, err := c.exchanger.Exchange(ctx, c.accountToken)
	if err != nil {
		return credcache.Entry{}, err
	}

	entry := credcache.Entry{
		Cred:          creds.Cred,
		SigningSecret: creds.SigningSecret,
		UserID:        creds.UserID,
		ObtainedAt:    c.now(),
	}
	c.cache.Put(key, entry)
	return entry, nil
}

type attendanceResponse struct {
	Code    *int   `json:"code"`
	Retcode *int   `json:"retcode"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Data    struct {
		HasToday bool `json:"hasToday"`
		AwardIDs []struct {
			ID string `json:"id"`
		} `json:"awardIds"`
		ResourceInfoMap map[string]struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Count int    `json:"count"`
			Icon  string `json:"icon"`
		} `json:"resourceInfoMap"`
	} `json:"data"`
}

func (r *attendanceResponse) code() int {
	if r.Code != nil {
		return *r.Code
	}
	if r.Retcode != nil {
		return *r.Retcode
	}
	return -1
}

func (r *attendanceResponse) message() string {
	if r.Msg != "" {
		return r.Msg
	}
	return r.Message
}

// Claim performs the daily check-in. All internal failures are translated
// here into a ClaimResult; nothing propagates past this boundary.
func (c *Client) Claim(ctx context.Context) ClaimResult {
	entry, err := c.resolveCredentials(ctx)
	if err != nil {
		return credentialFailure(err)
	}

	body := "{}"
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	path := requestPath(c.attendanceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.attendanceURL, strings.NewReader(body))
	if err != nil {
		return ClaimResult{Success: false, Message: err.Error()}
	}
	for k, v := range staticHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("cred", entry.Cred)
	req.Header.Set("sk-game-role", c.GameRole())
	req.Header.Set("platform", Platform)
	req.Header.Set("vName", VersionName)
	req.Header.Set("timestamp", timestamp)
	req.Header.Set("sign", SignV2(path, timestamp, Platform, VersionName, entry.SigningSecret))

	resp, err := c.http.Do(req)
	if err != nil {
		return ClaimResult{Success: false, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ClaimResult{Success: false, Message: err.Error()}
	}

	var parsed attendanceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ClaimResult{
			Success: false,
			Message: fmt.Sprintf("HTTP %d: request failed", resp.StatusCode),
		}
	}

	return normalizeAttendance(&parsed, resp.StatusCode)
}

func credentialFailure(err error) ClaimResult {
	var stepErr *OAuthStepError
	switch {
	case errors.Is(err, ErrNoCredentials):
		return ClaimResult{
			Success:     false,
			AuthFailure: true,
			Message:     "No credentials available - run /setup-endfield first",
		}
	case errors.As(err, &stepErr):
		return ClaimResult{
			Success:     false,
			AuthFailure: true,
			Message:     fmt.Sprintf("Credentials invalid (%s) - please re-run /setup-endfield", stepErr.Message),
		}
	default:
		return ClaimResult{Success: false, Message: err.Error()}
	}
}

// normalizeAttendance interprets the upstream payload. Already-claimed
// detection stays multi-signal (code, hasToday flag, message substring) and
// lives only here so upstream wording changes need a single-point update.
func normalizeAttendance(resp *attendanceResponse, httpStatus int) ClaimResult {
	code := resp.code()
	msg := resp.message()

	already := code != codeOK && (resp.Data.HasToday ||
		code == codeAlreadySigned ||
		strings.Contains(strings.ToLower(msg), "already"))
	if already {
		return ClaimResult{Success: true, AlreadyClaimed: true, Message: "Already checked in today"}
	}

	// a body that happens to carry code 0 on a non-200 response is not a claim
	if httpStatus != http.StatusOK {
		if code == codeCredExpired || code == codeCredInvalid {
			return ClaimResult{Success: false, AuthFailure: true, Message: "Authentication failed - please re-run /setup-endfield"}
		}
		if msg == "" {
			msg = "request failed"
		}
		return ClaimResult{Success: false, Message: fmt.Sprintf("HTTP %d: %s", httpStatus, msg)}
	}

	if code == codeOK {
		result := ClaimResult{Success: true, Message: "Check-in successful"}
		if msg != "" && msg != "OK" {
			result.Message = msg
		}
		result.Rewards = parseRewards(resp)
		return result
	}

	if code == codeCredExpired || code == codeCredInvalid {
		return ClaimResult{Success: false, AuthFailure: true, Message: "Authentication failed - please re-run /setup-endfield"}
	}

	if msg == "" {
		msg = "Attendance response received"
	}
	return ClaimResult{Success: false, Message: msg}
}

// parseRewards joins the award ID list against the resource info lookup,
// keeping the award order.
func parseRewards(resp *attendanceResponse) []Reward {
	if len(resp.Data.AwardIDs) == 0 || len(resp.Data.ResourceInfoMap) == 0 {
		return nil
	}

	var rewards []Reward
	for _, award := range resp.Data.AwardIDs {
		info, ok := resp.Data.ResourceInfoMap[award.ID]
		if !ok {
			continue
		}
		rewards = append(rewards, Reward{
			ID:    info.ID,
			Name:  info.Name,
			Count: info.Count,
			Icon:  info.Icon,
		})
	}
	return rewards
}

func requestPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
