package speech

import (
	"errors"
	"slices"
	"testing"
)

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`)
	voices := parseEspeakVoices(out)
	if len(voices) != 2 {
		t.Fatalf("len(parseEspeakVoices()) = %d, want 2", len(voices))
	}
	want := Voice{ID: "gmw/en-US", Name: "English (America)", Lang: "en-us"}
	if voices[1] != want {
		t.Errorf("voices[1] = %+v, want %+v", voices[1], want)
	}
}

func TestParseSayVoices(t *testing.T) {
	out := []byte(`Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Amélie              fr_CA    # Bonjour, je m'appelle Amélie.
`)
	voices := parseSayVoices(out)
	if len(voices) != 3 {
		t.Fatalf("len(parseSayVoices()) = %d, want 3", len(voices))
	}
	if voices[1].Name != "Bad News" || voices[1].Lang != "en-US" {
		t.Errorf("voices[1] = %+v", voices[1])
	}
	if voices[2].Lang != "fr-CA" {
		t.Errorf("voices[2].Lang = %q, want fr-CA", voices[2].Lang)
	}
}

func TestExecArgs(t *testing.T) {
	req := DefaultRequest("hello", "en-US")

	espeak := &ExecEngine{flavor: flavorEspeak}
	got := espeak.args(req)
	want := []string{"--stdin", "-s", "175", "-p", "50", "-a", "100", "-v", "en-us"}
	if !slices.Equal(got, want) {
		t.Errorf("espeak args = %v, want %v", got, want)
	}

	req.VoiceID = "Alex"
	req.Rate = 2
	say := &ExecEngine{flavor: flavorSay}
	got = say.args(req)
	want = []string{"-f", "-", "-r", "350", "-v", "Alex"}
	if !slices.Equal(got, want) {
		t.Errorf("say args = %v, want %v", got, want)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{0, 175},
		{1, 175},
		{0.1, 80},
		{10, 450},
	}
	for _, tt := range tests {
		if got := wordsPerMinute(tt.v); got != tt.want {
			t.Errorf("wordsPerMinute(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestNewExecEngineMissingBinary(t *testing.T) {
	_, err := NewExecEngine(ExecConfig{Binary: "speakwav-no-such-binary"})
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("NewExecEngine() error = %v, want ErrEngineUnavailable", err)
	}
}

func TestMockEngineLifecycle(t *testing.T) {
	m := NewMockEngine()
	var got []Event
	if err := m.Speak(Request{ID: "u1", Text: "hi"}, func(ev Event) { got = append(got, ev) }); err != nil {
		t.Fatal(err)
	}
	m.Start()
	if err := m.Pause(); err != nil {
		t.Errorf("Pause() error = %v", err)
	}
	m.End()

	if len(got) != 2 || got[0].Kind != EventStarted || got[1].Kind != EventEnded {
		t.Fatalf("events = %+v", got)
	}
	if got[1].UtteranceID != "u1" {
		t.Errorf("UtteranceID = %q, want u1", got[1].UtteranceID)
	}
	if err := m.Pause(); !errors.Is(err, ErrNotSpeaking) {
		t.Errorf("Pause() after end = %v, want ErrNotSpeaking", err)
	}
}
