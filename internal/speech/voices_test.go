package speech

import (
	"testing"
)

var testVoices = []Voice{
	{ID: "gmw/en-US", Name: "English (America)", Lang: "en-US"},
	{ID: "gmw/en", Name: "English (Great Britain)", Lang: "en-GB"},
	{ID: "roa/fr", Name: "French", Lang: "fr-FR"},
	{ID: "roa/fr-BE", Name: "French (Belgium)", Lang: "fr_BE"},
	{ID: "gmw/de", Name: "German", Lang: "de"},
}

func ids(voices []Voice) []string {
	out := make([]string, len(voices))
	for i, v := range voices {
		out[i] = v.ID
	}
	return out
}

func TestFilterVoices(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want []string
	}{
		{"base match", "fr-CA", []string{"roa/fr", "roa/fr-BE"}},
		{"exact region", "de-DE", []string{"gmw/de"}},
		{"falls back to english", "ja-JP", []string{"gmw/en-US", "gmw/en"}},
		{"invalid tag falls back to english", "!!", []string{"gmw/en-US", "gmw/en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterVoices(testVoices, tt.tag))
			if len(got) != len(tt.want) {
				t.Fatalf("FilterVoices(%q) = %v, want %v", tt.tag, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FilterVoices(%q)[%d] = %q, want %q", tt.tag, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterVoicesFirstTen(t *testing.T) {
	var voices []Voice
	for i := 0; i < 15; i++ {
		voices = append(voices, Voice{ID: string(rune('a' + i)), Lang: "ja"})
	}
	if got := FilterVoices(voices, "ko"); len(got) != 10 {
		t.Errorf("len(FilterVoices()) = %d, want 10", len(got))
	}
}

func TestFindVoice(t *testing.T) {
	tests := []struct {
		query  string
		wantID string
		wantOK bool
	}{
		{"roa/fr", "roa/fr", true},
		{"german", "gmw/de", true},
		{"Belg", "roa/fr-BE", true},
		{"", "", false},
		{"zzzz", "", false},
	}

	for _, tt := range tests {
		v, ok := FindVoice(testVoices, tt.query)
		if ok != tt.wantOK || v.ID != tt.wantID {
			t.Errorf("FindVoice(%q) = %q, %v, want %q, %v", tt.query, v.ID, ok, tt.wantID, tt.wantOK)
		}
	}
}
