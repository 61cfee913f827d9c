package endfield

// GameName is the display name used in claim summaries.
const GameName = "Arknights: Endfield"

const (
	defaultAttendanceURL  = "https://zonai.skport.com/web/v1/game/endfield/attendance"
	defaultAccountBaseURL = "https://as.gryphline.com"
	defaultPortalBaseURL  = "https://zonai.skport.com"

	// Platform is the web platform discriminator sent on every request and
	// used as the first segment of sk-game-role.
	Platform = "3"

	// VersionName is the client version reported in signed headers.
	VersionName = "1.0.0"

	// oauthAppCode identifies this client to the Gryphline grant endpoint.
	oauthAppCode = "6eb76d4e13aa36e6"

	// minTokenLength is the shortest plausible SK_OAUTH_CRED_KEY value.
	minTokenLength = 20
)

// ServerNames maps valid server IDs to their display names.
var ServerNames = map[string]string{
	"2": "Asia",
	"3": "Americas/Europe",
}

var staticHeaders = map[string]string{
	"accept":          "*/*",
	"content-type":    "application/json",
	"origin":          "https://game.skport.com",
	"referer":         "https://game.skport.com/",
	"user-agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0",
	"accept-language": "en-CA,en-US;q=0.9,en;q=0.8",
	"sk-language":     "en",
	"sec-fetch-dest":  "empty",
	"sec-fetch-mode":  "cors",
	"sec-fetch-site":  "same-site",
}

// Response codes observed from the portal API. The auth failure codes signal
// that the stored account token itself is bad, not merely the cached cred;
// confirm against current upstream behavior before extending this table.
const (
	codeOK            = 0
	codeCredExpired   = 10001
	codeCredInvalid   = 10002
	codeAlreadySigned = 10003
)
