package contract

import "context"

// ConversationMemory is the append-only transcript the dialogue engine writes to.
type ConversationMemory interface {
	AddMessage(role Role, text string) error
}

// Recorder captures one user utterance worth of audio. It returns io.EOF when
// the line has been hung up.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Player interface {
	Play(ctx context.Context, audio []byte) error
}

type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (SummaryResponse, error)
}

type OutcomeNotifier interface {
	Notify(ctx context.Context, outcome CallOutcome) error
}
