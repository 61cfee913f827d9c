package hoyolab

// Game describes one claimable HoYoverse title.
type Game struct {
	Name         string
	ShortName    string
	URL          string
	ActID        string
	BizName      string
	ExtraHeaders map[string]string
}

// Games maps game keys to their check-in endpoints. The act_id values are the
// live event activity IDs and change only when HoYoverse rotates an event.
var Games = map[string]Game{
	"genshin": {
		Name:      "Genshin Impact",
		ShortName: "GI",
		URL:       "https://sg-hk4e-api.hoyolab.com/event/sol/sign",
		ActID:     "e202102251931481",
		BizName:   "hk4e_global",
	},
	"starRail": {
		Name:      "Honkai: Star Rail",
		ShortName: "HSR",
		URL:       "https://sg-public-api.hoyolab.com/event/luna/os/sign",
		ActID:     "e202303301540311",
		BizName:   "hkrpg_global",
	},
	"zenlessZoneZero": {
		Name:      "Zenless Zone Zero",
		ShortName: "ZZZ",
		URL:       "https://sg-public-api.hoyolab.com/event/luna/zzz/os/sign",
		ActID:     "e202406031448091",
		BizName:   "nap_global",
		ExtraHeaders: map[string]string{
			"x-rpc-signgame": "zzz",
		},
	},
	"honkai3": {
		Name:      "Honkai Impact 3rd",
		ShortName: "HI3",
		URL:       "https://sg-public-api.hoyolab.com/event/mani/sign",
		ActID:     "e202110291205111",
		BizName:   "bh3_global",
	},
	"tearsOfThemis": {
		Name:      "Tears of Themis",
		ShortName: "ToT",
		URL:       "https://sg-public-api.hoyolab.com/event/luna/os/sign",
		ActID:     "e202308141137581",
		BizName:   "nxx_global",
	},
}

// GameKeys lists game keys in a stable display order.
var GameKeys = []string{"genshin", "starRail", "zenlessZoneZero", "honkai3", "tearsOfThemis"}

// defaultHeaders omits Accept-Encoding on purpose: the transport negotiates
// gzip itself and decompresses transparently only when it set the header.
var defaultHeaders = map[string]string{
	"Accept":            "application/json, text/plain, */*",
	"Connection":        "keep-alive",
	"x-rpc-app_version": "2.34.1",
	"x-rpc-client_type": "4",
	"User-Agent":        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Referer":           "https://act.hoyolab.com/",
	"Origin":            "https://act.hoyolab.com",
}

// redeemBaseURLs maps game keys to their code redemption hosts. Games absent
// here fall back to the Genshin host.
var redeemBaseURLs = map[string]string{
	"genshin":         "https://sg-hk4e-api.hoyolab.com",
	"starRail":        "https://sg-hkrpg-api.hoyolab.com",
	"zenlessZoneZero": "https://public-operation-nap.hoyoverse.com",
}

const defaultRedeemBaseURL = "https://sg-hk4e-api.hoyolab.com"

// dsSalt is the shared salt for Dynamic Secret generation (web client_type 4).
const dsSalt = "6s25p5ox5y14umn1p61aqyyvbvvl3lrt"

// retcodeAlreadyClaimed is returned when today's reward was claimed earlier.
const retcodeAlreadyClaimed = -5003
