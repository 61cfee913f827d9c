package endfield

import (
	"testing"
)

func TestSignV1(t *testing.T) {
	got := SignV1("1700000000", "some-cred")
	if len(got) != 32 {
		t.Fatalf("SignV1() length = %d, want 32 hex chars", len(got))
	}

	// Same inputs must always produce the same signature.
	if again := SignV1("1700000000", "some-cred"); again != got {
		t.Errorf("SignV1() not deterministic: %s != %s", again, got)
	}

	// Any input change must change the signature.
	if other := SignV1("1700000001", "some-cred"); other == got {
		t.Errorf("SignV1() ignored timestamp change")
	}
	if other := SignV1("1700000000", "other-cred"); other == got {
		t.Errorf("SignV1() ignored cred change")
	}
}

func TestSignV2(t *testing.T) {
	const (
		path      = "/api/v1/game/endfield/attendance"
		timestamp = "1700000000"
		secret    = "signing-secret"
	)

	got := SignV2(path, timestamp, Platform, VersionName, secret)
	if len(got) != 32 {
		t.Fatalf("SignV2() length = %d, want 32 hex chars", len(got))
	}

	if again := SignV2(path, timestamp, Platform, VersionName, secret); again != got {
		t.Errorf("SignV2() not deterministic: %s != %s", again, got)
	}

	tests := []struct {
		name      string
		path      string
		timestamp string
		secret    string
	}{
		{"different path", "/api/v1/other", timestamp, secret},
		{"different timestamp", path, "1700000001", secret},
		{"different secret", path, timestamp, "other-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if other := SignV2(tt.path, tt.timestamp, Platform, VersionName, tt.secret); other == got {
				t.Errorf("SignV2() produced identical signature for %s", tt.name)
			}
		})
	}
}

func TestSignVersionForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/game/endfield/attendance", "v2"},
		{"/api/v1/game/player/binding", "v2"},
		{"/api/v1/card/detail", "v2"},
		{"/api/v1/wiki/item", "v2"},
		{"/api/v1/enums", "v2"},
		{"/api/v2/anything", "v2"},
		{"/api/v1/user/info", "v1"},
		{"/web/v1/user/auth/refresh", "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := SignVersionForPath(tt.path); got != tt.want {
				t.Errorf("SignVersionForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
