package speech

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
)

// fallbackVoiceCount caps the list when nothing matches.
const fallbackVoiceCount = 10

// FilterVoices returns the voices whose base language matches tag. With no
// match it falls back to English voices, then to the first ten voices.
func FilterVoices(voices []Voice, tag string) []Voice {
	if matched := matchBase(voices, tag); len(matched) > 0 {
		return matched
	}
	if matched := matchBase(voices, "en"); len(matched) > 0 {
		return matched
	}
	if len(voices) > fallbackVoiceCount {
		return voices[:fallbackVoiceCount]
	}
	return voices
}

func matchBase(voices []Voice, tag string) []Voice {
	want, ok := baseOf(tag)
	if !ok {
		return nil
	}
	var out []Voice
	for _, v := range voices {
		if got, ok := baseOf(v.Lang); ok && got == want {
			out = append(out, v)
		}
	}
	return out
}

func baseOf(tag string) (language.Base, bool) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return language.Base{}, false
	}
	t, err := language.Parse(tag)
	if err != nil {
		return language.Base{}, false
	}
	b, conf := t.Base()
	return b, conf != language.No
}

// FindVoice looks a voice up by exact ID or name, then by fuzzy name match.
func FindVoice(voices []Voice, query string) (Voice, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Voice{}, false
	}
	for _, v := range voices {
		if strings.EqualFold(v.ID, query) || strings.EqualFold(v.Name, query) {
			return v, true
		}
	}

	names := make([]string, len(voices))
	for i, v := range voices {
		names[i] = v.Name
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return Voice{}, false
	}
	return voices[matches[0].Index], true
}
