// Package call runs one outbound delivery call end to end: order lookup,
// greeting, the listen/respond/speak loop, and the post-call hooks.
package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	dialoguex "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/dialogue"
	memoryx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/memory"
	orderx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/order"
)

const DefaultMaxSilentTurns = 2

// Devices is the audio side of a call.
type Devices struct {
	Recorder    contractx.Recorder
	Transcriber contractx.Transcriber
	Synthesizer contractx.Synthesizer
	Player      contractx.Player
}

func (d Devices) validate() error {
	switch {
	case d.Recorder == nil:
		return fmt.Errorf("%w: recorder is required", contractx.ErrValidation)
	case d.Transcriber == nil:
		return fmt.Errorf("%w: transcriber is required", contractx.ErrValidation)
	case d.Synthesizer == nil:
		return fmt.Errorf("%w: synthesizer is required", contractx.ErrValidation)
	case d.Player == nil:
		return fmt.Errorf("%w: player is required", contractx.ErrValidation)
	}
	return nil
}

type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithArchiver(a memoryx.Archiver) Option {
	return func(s *Session) {
		s.archiver = a
	}
}

func WithSummarizer(sm contractx.Summarizer) Option {
	return func(s *Session) {
		s.summarizer = sm
	}
}

func WithNotifier(n contractx.OutcomeNotifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithMaxSilentTurns sets how many consecutive empty transcripts end the call.
func WithMaxSilentTurns(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxSilentTurns = n
		}
	}
}

func WithEngineOptions(opts ...dialoguex.Option) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Session) {
		if newID != nil {
			s.newID = newID
		}
	}
}

type Session struct {
	store   orderx.Store
	memory  *memoryx.Conversation
	devices Devices

	archiver   memoryx.Archiver
	summarizer contractx.Summarizer
	notifier   contractx.OutcomeNotifier

	maxSilentTurns int
	engineOpts     []dialoguex.Option
	logger         zerolog.Logger
	now            func() time.Time
	newID          func() string
}

func NewSession(store orderx.Store, memory *memoryx.Conversation, devices Devices, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("order store is required")
	}
	if memory == nil {
		return nil, errors.New("conversation memory is required")
	}
	if err := devices.validate(); err != nil {
		return nil, err
	}

	s := &Session{
		store:          store,
		memory:         memory,
		devices:        devices,
		maxSilentTurns: DefaultMaxSilentTurns,
		logger:         log.Logger,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// SessionID is the memory session used for an order's call.
func SessionID(orderID string) string {
	return "order_" + orderID
}

// Run places one call to phone and returns how it ended. A hang-up or a
// silent line is a normal outcome, not an error.
func (s *Session) Run(ctx context.Context, phone string) (contractx.CallOutcome, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return contractx.CallOutcome{}, fmt.Errorf("%w: phone is required", contractx.ErrValidation)
	}

	order, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		return contractx.CallOutcome{}, fmt.Errorf("find order: %w", err)
	}

	outcome := contractx.CallOutcome{
		CallID:    s.newID(),
		SessionID: SessionID(order.OrderID),
		OrderID:   order.OrderID,
		Phone:     phone,
		StartedAt: s.now().UTC(),
	}
	logger := s.logger.With().Str("call_id", outcome.CallID).Str("order_id", order.OrderID).Logger()

	if err := s.memory.StartSession(outcome.SessionID); err != nil {
		return outcome, fmt.Errorf("start session: %w", err)
	}

	engine, err := dialoguex.New(order, s.store, s.memory, append([]dialoguex.Option{dialoguex.WithLogger(logger)}, s.engineOpts...)...)
	if err != nil {
		return outcome, err
	}

	runner, err := s.compileTurnGraph(ctx)
	if err != nil {
		return outcome, err
	}

	greeting, err := engine.Open()
	if err != nil {
		return outcome, err
	}
	logger.Info().Msg("call: started")
	if err := s.speak(ctx, greeting); err != nil {
		return outcome, err
	}

	st := &turnState{engine: engine}
	for !st.done() {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		if st, err = runner.Invoke(ctx, st); err != nil {
			return outcome, fmt.Errorf("turn: %w", err)
		}
	}

	if st.abandoned && !engine.State().Terminal() {
		if err := s.store.MarkFailed(ctx, order.OrderID); err != nil {
			return outcome, fmt.Errorf("mark failed: %w", err)
		}
	}

	outcome.FinalState = engine.State().String()
	outcome.Abandoned = st.abandoned || st.hungUp
	outcome.Turns = st.userTurns
	outcome.OrderStatus = s.orderStatus(ctx, phone)
	outcome.EndedAt = s.now().UTC()

	logger.Info().
		Str("final_state", outcome.FinalState).
		Str("order_status", outcome.OrderStatus).
		Bool("abandoned", outcome.Abandoned).
		Msg("call: ended")

	s.afterCall(ctx, order, &outcome, logger)
	return outcome, nil
}

func (s *Session) speak(ctx context.Context, text string) error {
	audio, err := s.devices.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if err := s.devices.Player.Play(ctx, audio); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

func (s *Session) orderStatus(ctx context.Context, phone string) string {
	o, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		s.logger.Warn().Err(err).Msg("call: reload order")
		return ""
	}
	return string(o.Status)
}

// afterCall runs the optional hooks. Their failures are logged and never
// change the outcome returned to the caller.
func (s *Session) afterCall(ctx context.Context, order *orderx.Order, outcome *contractx.CallOutcome, logger zerolog.Logger) {
	if s.summarizer != nil {
		resp, err := s.summarizer.Summarize(ctx, contractx.SummaryRequest{
			OrderID:      order.OrderID,
			CustomerName: order.CustomerName,
			FinalState:   outcome.FinalState,
			OrderStatus:  outcome.OrderStatus,
			Turns:        s.memory.Conversation(),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("call: summarize")
		} else {
			outcome.Summary = resp.Summary
		}
	}

	if s.archiver != nil {
		transcript, err := s.memory.Snapshot(s.now())
		if err == nil {
			archived := *outcome
			transcript.Outcome = &archived
			err = s.archiver.Save(ctx, transcript)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("call: archive transcript")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, *outcome); err != nil {
			logger.Warn().Err(err).Msg("call: notify outcome")
		}
	}
}
