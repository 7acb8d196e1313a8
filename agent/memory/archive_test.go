package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

func newTestArchiver(t *testing.T, handler http.HandlerFunc, opts ...ArchiveOption) *UpstashArchiver {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]ArchiveOption{WithHTTPClient(server.Client())}, opts...)
	archiver, err := NewUpstashArchiver(UpstashRedisConfig{URL: server.URL, Token: "token"}, opts...)
	if err != nil {
		t.Fatalf("NewUpstashArchiver() error = %v", err)
	}
	return archiver
}

func TestUpstashArchiverRedisKey(t *testing.T) {
	t.Parallel()

	archiver := &UpstashArchiver{keyPrefix: defaultArchiveKeyPrefix}
	got, err := archiver.redisKey("order_ORD-1")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "chative:call:order_ORD-1" {
		t.Fatalf("redisKey() = %q, want %q", got, "chative:call:order_ORD-1")
	}

	if _, err := archiver.redisKey("   "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestNewUpstashArchiverValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashArchiver(UpstashRedisConfig{Token: "t"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashArchiver(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewUpstashArchiver(UpstashRedisConfig{URL: "https://example.upstash.io", Token: "t"}, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestUpstashArchiverSave(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	var gotAuth string
	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}, WithKeyPrefix("test:"), WithTTL(90*time.Minute))

	transcript := &Transcript{
		SessionID: "order_ORD-1",
		Turns: []contractx.Turn{
			{Role: contractx.RoleAgent, Text: "Hello"},
			{Role: contractx.RoleUser, Text: "yes"},
		},
	}
	if err := archiver.Save(context.Background(), transcript); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if len(gotCommand) != 5 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "SET" || gotCommand[1] != "test:order_ORD-1" {
		t.Fatalf("unexpected command head: %#v", gotCommand[:2])
	}
	if gotCommand[3] != "EX" || gotCommand[4] != float64(5400) {
		t.Fatalf("unexpected ttl args: %#v", gotCommand[3:])
	}
	if transcript.SavedAt.IsZero() {
		t.Fatal("Save() must stamp SavedAt")
	}
}

func TestUpstashArchiverSaveRejectsInvalidTranscript(t *testing.T) {
	t.Parallel()

	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	if err := archiver.Save(context.Background(), nil); !errors.Is(err, ErrNilTranscript) {
		t.Fatalf("Save(nil) error = %v", err)
	}
	if err := archiver.Save(context.Background(), &Transcript{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save(empty) error = %v", err)
	}
}

func TestUpstashArchiverLoad(t *testing.T) {
	t.Parallel()

	seed := Transcript{
		SessionID: "order_ORD-2",
		Turns:     []contractx.Turn{{Role: contractx.RoleUser, Text: "25th"}},
		Outcome:   &contractx.CallOutcome{OrderID: "ORD-2", FinalState: "CLOSE"},
		SavedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	var gotCommand []any
	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	})

	got, err := archiver.Load(context.Background(), "order_ORD-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SessionID != "order_ORD-2" || len(got.Turns) != 1 || got.Outcome == nil || got.Outcome.OrderID != "ORD-2" {
		t.Fatalf("Load() = %#v", got)
	}
	if gotCommand[0] != "GET" || gotCommand[1] != "chative:call:order_ORD-2" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
}

func TestUpstashArchiverLoadMissing(t *testing.T) {
	t.Parallel()

	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":null}`)
	})

	if _, err := archiver.Load(context.Background(), "nope"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Fatalf("Load() error = %v, want ErrTranscriptNotFound", err)
	}
}

func TestUpstashArchiverDelete(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":1}`)
	})

	if err := archiver.Delete(context.Background(), "order_ORD-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotCommand[0] != "DEL" || gotCommand[1] != "chative:call:order_ORD-3" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
}

func TestUpstashArchiverErrorResponses(t *testing.T) {
	t.Parallel()

	archiver := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGTYPE"}`)
	})
	if err := archiver.Delete(context.Background(), "x"); !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("Delete() error = %v, want ErrPersistence", err)
	}

	failing := newTestArchiver(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	if err := failing.Delete(context.Background(), "x"); !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("Delete() error = %v, want ErrPersistence", err)
	}
}

func TestTTLSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ttl  time.Duration
		want int64
	}{
		{ttl: 0, want: 1},
		{ttl: 500 * time.Millisecond, want: 1},
		{ttl: time.Second, want: 1},
		{ttl: 1500 * time.Millisecond, want: 2},
		{ttl: time.Hour, want: 3600},
	}
	for _, tt := range tests {
		if got := ttlSeconds(tt.ttl); got != tt.want {
			t.Fatalf("ttlSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}
