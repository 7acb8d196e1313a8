// Package dialogue drives the delivery rescheduling conversation: one user
// utterance in, one agent reply out, with the order updated when a branch is
// confirmed.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	intentx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/intent"
	orderx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/order"
)

var ErrAlreadyOpened = fmt.Errorf("%w: conversation already opened", contractx.ErrPrecondition)

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithNameStrategy replaces how the neighbor's name is captured.
func WithNameStrategy(strategy intentx.NameStrategy) Option {
	return func(e *Engine) {
		if strategy != nil {
			e.names = strategy
		}
	}
}

// Engine is not safe for concurrent use; callers feed one utterance at a time.
type Engine struct {
	order  *orderx.Order
	store  orderx.Store
	memory contractx.ConversationMemory
	names  intentx.NameStrategy
	logger zerolog.Logger

	state   State
	scratch Context
}

func New(
	order *orderx.Order,
	store orderx.Store,
	memory contractx.ConversationMemory,
	opts ...Option,
) (*Engine, error) {
	if order == nil || strings.TrimSpace(order.OrderID) == "" {
		return nil, fmt.Errorf("%w: order with id is required", contractx.ErrValidation)
	}
	if store == nil {
		return nil, errors.New("order store is required")
	}
	if memory == nil {
		return nil, errors.New("conversation memory is required")
	}

	e := &Engine{
		order:  order.Clone(),
		store:  store,
		memory: memory,
		names:  intentx.RawNameStrategy{},
		logger: log.Logger,
		state:  StateOpening,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func (e *Engine) State() State {
	return e.state
}

// Context returns a copy of the values collected so far.
func (e *Engine) Context() Context {
	var c Context
	if e.scratch.Date != nil {
		d := *e.scratch.Date
		c.Date = &d
	}
	if e.scratch.NeighborName != nil {
		n := *e.scratch.NeighborName
		c.NeighborName = &n
	}
	return c
}

// Open greets the customer and moves to identity verification. The greeting
// is recorded as an agent turn.
func (e *Engine) Open() (string, error) {
	if e.state != StateOpening {
		return "", ErrAlreadyOpened
	}
	reply := greeting(e.order.CustomerName)
	if err := e.memory.AddMessage(contractx.RoleAgent, reply); err != nil {
		return "", fmt.Errorf("record greeting: %w", err)
	}
	e.moveTo(StateVerifyPerson)
	return reply, nil
}

// HandleInput consumes one utterance and returns the agent's reply. Both are
// appended to memory, user first. Unrecognised input re-prompts without
// changing state. Errors are returned only for a missing memory session or a
// failed order update; in both cases the state does not advance.
func (e *Engine) HandleInput(ctx context.Context, utterance string) (string, error) {
	if err := e.memory.AddMessage(contractx.RoleUser, utterance); err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}

	// The greeting carries no input, so an utterance arriving before Open is
	// treated as the answer to it.
	if e.state == StateOpening {
		e.moveTo(StateVerifyPerson)
	}

	text := strings.ToLower(strings.TrimSpace(utterance))
	reply, next, err := e.step(ctx, text)
	if err != nil {
		e.logger.Error().Err(err).
			Str("order_id", e.order.OrderID).
			Stringer("state", e.state).
			Msg("dialogue turn failed")
		return "", err
	}
	e.moveTo(next)

	if err := e.memory.AddMessage(contractx.RoleAgent, reply); err != nil {
		return "", fmt.Errorf("record agent turn: %w", err)
	}
	return reply, nil
}

func (e *Engine) step(ctx context.Context, text string) (string, State, error) {
	switch e.state {
	case StateVerifyPerson:
		return e.verifyPerson(text)
	case StateOfferDates:
		return e.offerDates(text)
	case StateConfirmDate:
		return e.confirmDate(ctx, text)
	case StateOfferNeighbor:
		return e.offerNeighbor(ctx, text)
	case StateCollectNeighborName:
		return e.collectNeighborName(text)
	case StateConfirmNeighbor:
		return e.confirmNeighbor(ctx, text)
	case StateOpening, StateClose:
		return msgClose, StateClose, nil
	default:
		return msgClose, StateClose, nil
	}
}

func (e *Engine) verifyPerson(text string) (string, State, error) {
	switch {
	case intentx.IsAffirmative(text):
		return offerDates(e.order.AvailableDates), StateOfferDates, nil
	case intentx.IsNegative(text):
		return msgWrongPerson, StateClose, nil
	default:
		return msgVerifyRetry, StateVerifyPerson, nil
	}
}

// offerDates checks unavailability and refusal before looking for a date, so
// "I'm busy on the 25th" goes to the neighbor offer.
func (e *Engine) offerDates(text string) (string, State, error) {
	if intentx.IsUnavailable(text) || intentx.IsNegative(text) {
		return msgOfferNeighbor, StateOfferNeighbor, nil
	}
	if date, ok := intentx.ExtractDate(text, e.order.AvailableDates); ok {
		e.scratch.Date = &date
		return confirmDate(date), StateConfirmDate, nil
	}
	return msgDateRetry, StateOfferDates, nil
}

func (e *Engine) confirmDate(ctx context.Context, text string) (string, State, error) {
	switch {
	case intentx.IsAffirmative(text):
		if e.scratch.Date == nil {
			return msgAskDateAgain, StateOfferDates, nil
		}
		date := *e.scratch.Date
		if err := e.store.ScheduleDelivery(ctx, e.order.OrderID, date); err != nil {
			return "", e.state, fmt.Errorf("schedule delivery: %w", err)
		}
		return dateBooked(date), StateClose, nil
	case intentx.IsNegative(text):
		return msgAskDateAgain, StateOfferDates, nil
	default:
		return msgConfirmDateRetry, StateConfirmDate, nil
	}
}

func (e *Engine) offerNeighbor(ctx context.Context, text string) (string, State, error) {
	switch {
	case intentx.IsAffirmative(text):
		return msgAskNeighborName, StateCollectNeighborName, nil
	case intentx.IsNegative(text):
		if err := e.store.Cancel(ctx, e.order.OrderID); err != nil {
			return "", e.state, fmt.Errorf("cancel delivery: %w", err)
		}
		return msgCancelled, StateClose, nil
	default:
		return msgNeighborRetry, StateOfferNeighbor, nil
	}
}

func (e *Engine) collectNeighborName(text string) (string, State, error) {
	name, ok := e.names.CaptureName(text)
	if !ok {
		return msgNameRetry, StateCollectNeighborName, nil
	}
	e.scratch.NeighborName = &name
	return confirmNeighbor(name), StateConfirmNeighbor, nil
}

func (e *Engine) confirmNeighbor(ctx context.Context, text string) (string, State, error) {
	switch {
	case intentx.IsAffirmative(text):
		if e.scratch.NeighborName == nil {
			return msgAskNameAgain, StateCollectNeighborName, nil
		}
		if err := e.store.ScheduleNeighborDelivery(ctx, e.order.OrderID, *e.scratch.NeighborName, ""); err != nil {
			return "", e.state, fmt.Errorf("schedule neighbor delivery: %w", err)
		}
		return msgNeighborBooked, StateClose, nil
	case intentx.IsNegative(text):
		return msgAskNameAgain, StateCollectNeighborName, nil
	default:
		return msgConfirmNameRetry, StateConfirmNeighbor, nil
	}
}

func (e *Engine) moveTo(next State) {
	if next == e.state {
		return
	}
	e.logger.Debug().
		Str("order_id", e.order.OrderID).
		Stringer("from", e.state).
		Stringer("to", next).
		Msg("dialogue transition")
	e.state = next
}
