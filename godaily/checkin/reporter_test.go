package checkin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
)

func TestFormatHoyolabResults(t *testing.T) {
	tests := []struct {
		name    string
		results []hoyolab.ClaimResult
		want    []string
	}{
		{
			"empty",
			nil,
			[]string{"No games configured for claiming"},
		},
		{
			"mixed outcomes",
			[]hoyolab.ClaimResult{
				{Success: true, Game: "Genshin Impact", Message: "Claimed successfully!"},
				{Success: true, AlreadyClaimed: true, Game: "Honkai: Star Rail", Message: "Already claimed today"},
				{Success: false, Game: "Zenless Zone Zero", Message: "Not logged in"},
			},
			[]string{
				"✅ **Genshin Impact**: Claimed successfully!",
				"🔄 **Honkai: Star Rail**: Already claimed today",
				"❌ **Zenless Zone Zero**: Not logged in",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatHoyolabResults(tt.results)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatHoyolabResults() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestFormatEndfieldResult(t *testing.T) {
	t.Run("fresh claim with rewards", func(t *testing.T) {
		got := FormatEndfieldResult(endfield.ClaimResult{
			Success: true,
			Message: "Check-in successful",
			Rewards: []endfield.Reward{
				{Name: "Originium", Count: 2},
				{Name: "Mystery Box"},
			},
		})
		for _, want := range []string{"✅", "Check-in successful", "• Originium x2", "• Mystery Box x1"} {
			if !strings.Contains(got, want) {
				t.Errorf("FormatEndfieldResult() = %q, missing %q", got, want)
			}
		}
	})

	t.Run("already claimed", func(t *testing.T) {
		got := FormatEndfieldResult(endfield.ClaimResult{Success: true, AlreadyClaimed: true})
		if !strings.Contains(got, "Already claimed today") {
			t.Errorf("FormatEndfieldResult() = %q, want already-claimed text", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		got := FormatEndfieldResult(endfield.ClaimResult{Success: false, Message: "Authentication failed"})
		if !strings.HasPrefix(got, "❌") || !strings.Contains(got, "Authentication failed") {
			t.Errorf("FormatEndfieldResult() = %q, want failure line", got)
		}
	})
}

func TestSummarySections(t *testing.T) {
	endfieldResult := endfield.ClaimResult{Success: true}

	tests := []struct {
		name   string
		result AccountResult
		want   int
	}{
		{"nothing claimed", AccountResult{}, 0},
		{
			"hoyolab only",
			AccountResult{Hoyolab: []hoyolab.ClaimResult{{Success: true}}, HoyolabSummary: "ok"},
			1,
		},
		{
			"both platforms",
			AccountResult{
				Hoyolab:         []hoyolab.ClaimResult{{Success: true}},
				HoyolabSummary:  "ok",
				Endfield:        &endfieldResult,
				EndfieldSummary: "ok",
			},
			2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummarySections(tt.result); len(got) != tt.want {
				t.Errorf("SummarySections() = %d sections, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAccountResultHasAny(t *testing.T) {
	if (AccountResult{}).HasAny() {
		t.Error("HasAny() = true for empty result")
	}

	r := AccountResult{Hoyolab: []hoyolab.ClaimResult{{Success: true}}}
	if !r.HasAny() {
		t.Error("HasAny() = false with hoyolab results")
	}

	claim := endfield.ClaimResult{Success: true}
	r = AccountResult{Endfield: &claim}
	if !r.HasAny() {
		t.Error("HasAny() = false with endfield result")
	}
}

type failingSender struct {
	calls int
}

func (s *failingSender) SendDM(ctx context.Context, discordID string, embed discord.Embed) error {
	s.calls++
	return errors.New("cannot send messages to this user")
}

func TestReporterSwallowsDeliveryFailures(t *testing.T) {
	sender := &failingSender{}
	r := NewReporter(sender)

	result := AccountResult{Hoyolab: []hoyolab.ClaimResult{{Success: true}}, HoyolabSummary: "ok"}
	r.Deliver(context.Background(), "123", result)

	if sender.calls != 1 {
		t.Errorf("SendDM calls = %d, want 1", sender.calls)
	}
}
