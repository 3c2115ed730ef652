package secrets

import (
	"strings"
	"testing"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		style Style
		want  string
	}{
		{name: "empty", value: "", style: StylePartial, want: ""},
		{name: "full", value: "abcdefghijklmnop", style: StyleFull, want: "***"},
		{name: "partial", value: "abcdefghijklmnop", style: StylePartial, want: "abcdef***"},
		{name: "partial short value fully masked", value: "abcdefgh", style: StylePartial, want: "***"},
		{name: "unknown style falls back to partial", value: "abcdefghijklmnop", style: "other", want: "abcdef***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskValue(tt.value, tt.style); got != tt.want {
				t.Errorf("MaskValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskValue_Hash(t *testing.T) {
	a := MaskValue("token-a", StyleHash)
	b := MaskValue("token-b", StyleHash)

	if !strings.HasPrefix(a, "sha256:") || len(a) != len("sha256:")+16 {
		t.Errorf("hash mask = %q, want sha256: prefix and 16 hex chars", a)
	}
	if a == b {
		t.Error("different values should have different fingerprints")
	}
	if a != MaskValue("token-a", StyleHash) {
		t.Error("fingerprint should be stable")
	}
}

func TestAttr(t *testing.T) {
	attr := Attr("access_token", "secret-value")
	if attr.Key != "access_token" {
		t.Errorf("Key = %s", attr.Key)
	}
	if strings.Contains(attr.Value.String(), "secret-value") {
		t.Error("attribute leaks the raw credential")
	}
}

func TestToken(t *testing.T) {
	if got := Token("0123456789abcdefXYZ"); got != "012345***" {
		t.Errorf("Token() = %q", got)
	}
}
