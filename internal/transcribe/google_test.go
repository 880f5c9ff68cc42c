package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"

	"automontage/internal/services"
)

func writeAudio(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video_audio.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestGoogleClientTranscribeWithAPIKey(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt fake pcm")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/v1/speech:recognize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q, want secret", got)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("api key requests must not carry Authorization, got %q", auth)
		}
		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Config.Encoding != "LINEAR16" || req.Config.SampleRateHertz != 16000 || req.Config.LanguageCode != "en-US" {
			t.Errorf("unexpected config %+v", req.Config)
		}
		if !req.Config.EnableAutomaticPunctuation {
			t.Error("expected automatic punctuation to be requested")
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Audio.Content)
		if err != nil || string(decoded) != string(audio) {
			t.Errorf("audio content mismatch: %q (%v)", decoded, err)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"alternatives":[{"transcript":"hello there","confidence":0.91},{"transcript":"hollow"}]},
			{"alternatives":[]},
			{"alternatives":[{"transcript":" general kenobi ","confidence":0.8}],"languageCode":"en-us"}
		]}`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(), GoogleConfig{
		APIKey:               "secret",
		BaseURL:              server.URL + "/",
		AutomaticPunctuation: true,
	})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	got, err := client.Transcribe(context.Background(), writeAudio(t, audio))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got.Text != "hello there general kenobi" {
		t.Fatalf("Text = %q", got.Text)
	}
	if len(got.Segments) != 2 || got.Segments[0].Confidence != 0.91 {
		t.Fatalf("unexpected segments %+v", got.Segments)
	}
	if got.Language != "en-us" {
		t.Fatalf("Language = %q, want en-us", got.Language)
	}
}

func TestGoogleClientUsesTokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-123" {
			t.Errorf("Authorization = %q", auth)
		}
		if r.URL.Query().Has("key") {
			t.Error("token requests must not send an API key")
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(),
		GoogleConfig{BaseURL: server.URL, APIKey: "ignored", SampleRateHertz: 8000},
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-123"})),
	)
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	got, err := client.Transcribe(context.Background(), writeAudio(t, []byte("x")))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got.Text != "" || len(got.Segments) != 0 {
		t.Fatalf("expected empty transcript, got %+v", got)
	}
}

func TestGoogleClientHTTPErrorIsExternalTool(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(), GoogleConfig{BaseURL: server.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	_, err = client.Transcribe(context.Background(), writeAudio(t, []byte("x")))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusForbidden || status.Message != "API key not valid" {
		t.Fatalf("expected StatusError 403, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one request (no retry), got %d", n)
	}
}

func TestGoogleClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(), GoogleConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	if _, err := client.Transcribe(context.Background(), writeAudio(t, []byte("x"))); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestGoogleClientMissingAudio(t *testing.T) {
	client, err := NewGoogleClient(context.Background(), GoogleConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	_, err = client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewGoogleClientCredentialErrors(t *testing.T) {
	if _, err := NewGoogleClient(context.Background(), GoogleConfig{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without credentials, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := NewGoogleClient(context.Background(), GoogleConfig{CredentialsFile: missing}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unreadable file, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewGoogleClient(context.Background(), GoogleConfig{CredentialsFile: bad}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for invalid key file, got %v", err)
	}
}

func TestJoinSegments(t *testing.T) {
	got := JoinSegments([]Segment{{Text: " one "}, {Text: ""}, {Text: "two"}})
	if got != "one two" {
		t.Fatalf("JoinSegments = %q", got)
	}
}
