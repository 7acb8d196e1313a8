package call

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

var (
	_ contractx.Recorder    = (*LineRecorder)(nil)
	_ contractx.Transcriber = TextTranscriber{}
	_ contractx.Synthesizer = TextSynthesizer{}
	_ contractx.Player      = (*WriterPlayer)(nil)
)

// LineRecorder reads one line of text per turn. The "audio" it returns is
// the line itself.
type LineRecorder struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewLineRecorder reads from r. When prompt is non-nil a "you: " marker is
// written before each read.
func NewLineRecorder(r io.Reader, prompt io.Writer) *LineRecorder {
	return &LineRecorder{scanner: bufio.NewScanner(r), prompt: prompt}
}

func (l *LineRecorder) Record(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prompt != nil {
		fmt.Fprint(l.prompt, "you: ")
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return []byte(l.scanner.Text()), nil
}

type TextTranscriber struct{}

func (TextTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	return string(audio), nil
}

type TextSynthesizer struct{}

func (TextSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

// WriterPlayer prints each synthesized reply as an "agent:" line.
type WriterPlayer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterPlayer(w io.Writer) *WriterPlayer {
	return &WriterPlayer{w: w}
}

func (p *WriterPlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "agent: %s\n", audio)
	return err
}

// ConsoleDevices wires the text adapters to a reader and writer.
func ConsoleDevices(in io.Reader, out io.Writer) Devices {
	return Devices{
		Recorder:    NewLineRecorder(in, out),
		Transcriber: TextTranscriber{},
		Synthesizer: TextSynthesizer{},
		Player:      NewWriterPlayer(out),
	}
}
