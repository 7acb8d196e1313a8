package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrNilTranscript      = errors.New("transcript is nil")
)

const (
	defaultArchiveKeyPrefix = "chative:call:"
	defaultArchiveTTL       = 30 * 24 * time.Hour
	maxResponseSizeBytes    = 2 << 20
)

// Transcript is the archived record of one finished call.
type Transcript struct {
	SessionID string                 `json:"session_id"`
	Turns     []contractx.Turn       `json:"turns"`
	Outcome   *contractx.CallOutcome `json:"outcome,omitempty"`
	SavedAt   time.Time              `json:"saved_at"`
}

func (t *Transcript) Validate() error {
	if t == nil {
		return ErrNilTranscript
	}
	if strings.TrimSpace(t.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, turn := range t.Turns {
		if turn.Role != contractx.RoleUser && turn.Role != contractx.RoleAgent {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}

// Snapshot copies the current session into a Transcript.
func (c *Conversation) Snapshot(now time.Time) (*Transcript, error) {
	id := c.SessionID()
	if id == "" {
		return nil, ErrNoActiveSession
	}
	return &Transcript{
		SessionID: id,
		Turns:     c.Conversation(),
		SavedAt:   now.UTC(),
	}, nil
}

// Archiver persists finished call transcripts.
type Archiver interface {
	Save(ctx context.Context, t *Transcript) error
	Load(ctx context.Context, sessionID string) (*Transcript, error)
	Delete(ctx context.Context, sessionID string) error
}

// ArchiveOption customizes UpstashArchiver.
type ArchiveOption func(*UpstashArchiver)

func WithKeyPrefix(prefix string) ArchiveOption {
	return func(a *UpstashArchiver) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			a.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) ArchiveOption {
	return func(a *UpstashArchiver) {
		a.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) ArchiveOption {
	return func(a *UpstashArchiver) {
		if client != nil {
			a.httpClient = client
		}
	}
}

var _ Archiver = (*UpstashArchiver)(nil)

// UpstashArchiver stores transcripts in Upstash Redis through its REST API.
type UpstashArchiver struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashArchiver(cfg UpstashRedisConfig, opts ...ArchiveOption) (*UpstashArchiver, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	archiver := &UpstashArchiver{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultArchiveKeyPrefix,
		ttl:        defaultArchiveTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(archiver)
		}
	}
	if archiver.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return archiver, nil
}

func (a *UpstashArchiver) Save(ctx context.Context, t *Transcript) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.SavedAt.IsZero() {
		t.SavedAt = time.Now().UTC()
	}

	key, err := a.redisKey(t.SessionID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if a.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(a.ttl))
	}
	_, err = a.exec(ctx, cmd)
	return err
}

func (a *UpstashArchiver) Load(ctx context.Context, sessionID string) (*Transcript, error) {
	key, err := a.redisKey(sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := a.exec(ctx, []any{"GET", key})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrTranscriptNotFound
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode transcript payload: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal([]byte(encoded), &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcript loaded from archive: %w", err)
	}
	return &t, nil
}

func (a *UpstashArchiver) Delete(ctx context.Context, sessionID string) error {
	key, err := a.redisKey(sessionID)
	if err != nil {
		return err
	}
	_, err = a.exec(ctx, []any{"DEL", key})
	return err
}

func (a *UpstashArchiver) redisKey(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", ErrInvalidSession
	}
	return a.keyPrefix + id, nil
}

func (a *UpstashArchiver) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute redis request: %v", contractx.ErrPersistence, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read redis response: %v", contractx.ErrPersistence, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: redis http status=%d body=%s", contractx.ErrPersistence, resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPersistence, parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
