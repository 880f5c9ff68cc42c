package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"automontage/internal/services"
)

const (
	// CloudPlatformScope is the OAuth2 scope required by Speech-to-Text.
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	defaultBaseURL      = "https://speech.googleapis.com"
	defaultLanguageCode = "en-US"
	defaultSampleRate   = 16000
	defaultHTTPTimeout  = 120 * time.Second
	recognizePath       = "/v1/speech:recognize"
	maxErrorBody        = 4096
)

// GoogleConfig captures the runtime settings for the Speech-to-Text client.
type GoogleConfig struct {
	CredentialsFile      string
	APIKey               string
	BaseURL              string
	LanguageCode         string
	SampleRateHertz      int
	TimeoutSeconds       int
	AutomaticPunctuation bool
}

// GoogleClient calls speech:recognize synchronously.
type GoogleClient struct {
	cfg         GoogleConfig
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

// Option customizes the client.
type Option func(*GoogleClient)

// WithHTTPClient overrides the base HTTP client. Its transport is wrapped
// with OAuth2 when a token source is in use.
func WithHTTPClient(client *http.Client) Option {
	return func(c *GoogleClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource supplies OAuth2 tokens directly instead of reading a
// credentials file.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *GoogleClient) {
		c.tokenSource = ts
	}
}

// NewGoogleClient builds a client. Credentials are resolved in order: an
// explicit token source, the service-account file, then the API key. Having
// none of them is a configuration error.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig, opts ...Option) (*GoogleClient, error) {
	cfg.CredentialsFile = strings.TrimSpace(cfg.CredentialsFile)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = defaultLanguageCode
	}
	if cfg.SampleRateHertz <= 0 {
		cfg.SampleRateHertz = defaultSampleRate
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := &GoogleClient{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}

	if client.tokenSource == nil && cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "read credentials", "Unable to read Google credentials file", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "parse credentials", "Google credentials file is not a valid service-account key", err)
		}
		client.tokenSource = creds.TokenSource
	}
	if client.tokenSource == nil && cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "credentials", "Set transcription.credentials_file or transcription.api_key", nil)
	}

	if client.tokenSource != nil {
		base := client.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *client.httpClient
		wrapped.Transport = &oauth2.Transport{Source: client.tokenSource, Base: base}
		client.httpClient = &wrapped
	}
	return client, nil
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation,omitempty"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
		LanguageCode string `json:"languageCode"`
	} `json:"results"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Transcribe uploads the WAV at audioPath and returns the first alternative
// of every result, in response order.
func (c *GoogleClient) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrNotFound, "transcribe", "read audio", "Unable to read extracted audio", err)
	}
	payload := recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            c.cfg.SampleRateHertz,
			LanguageCode:               c.cfg.LanguageCode,
			EnableAutomaticPunctuation: c.cfg.AutomaticPunctuation,
		},
		Audio: recognitionAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Transcript{}, fmt.Errorf("speech request: encode body: %w", err)
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrConfiguration, "transcribe", "build url", "Invalid transcription.base_url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Transcript{}, fmt.Errorf("speech request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Transcript{}, ctx.Err()
		}
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "recognize", "Speech API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "recognize", "Speech API returned an error", statusError(resp))
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "decode response", "Speech API returned malformed JSON", err)
	}

	transcript := Transcript{Language: c.cfg.LanguageCode}
	for _, result := range decoded.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		best := result.Alternatives[0]
		transcript.Segments = append(transcript.Segments, Segment{
			Text:       best.Transcript,
			Confidence: best.Confidence,
		})
		if lang := strings.TrimSpace(result.LanguageCode); lang != "" {
			transcript.Language = lang
		}
	}
	transcript.Text = strings.TrimSpace(JoinSegments(transcript.Segments))
	return transcript, nil
}

func (c *GoogleClient) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL + recognizePath)
	if err != nil {
		return "", err
	}
	if c.tokenSource == nil && c.cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", c.cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("speech api: http %d", e.StatusCode)
	if e.Status != "" {
		msg += " " + e.Status
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	out := &StatusError{StatusCode: resp.StatusCode}
	var parsed apiErrorBody
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		out.Status = parsed.Error.Status
		out.Message = parsed.Error.Message
		return out
	}
	out.Message = strings.TrimSpace(string(raw))
	return out
}
