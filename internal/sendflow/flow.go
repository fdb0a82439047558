// Package sendflow drives the send-payment state machine: destination
// input, amount entry, fee confirmation, execution, result. Transitions
// are strictly ordered and closing the flow always returns it to a fresh
// input state.
package sendflow

import (
	"context"
	"sync"

	"github.com/emberwallet/ember/internal/classify"
	"github.com/emberwallet/ember/internal/engine"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// Step names a position in the send flow.
type Step string

// Flow steps, in order.
const (
	StepInput      Step = "input"
	StepAmount     Step = "amount"
	StepConfirm    Step = "confirm"
	StepProcessing Step = "processing"
	StepResult     Step = "result"
)

// Payer is the slice of the session manager the flow needs.
type Payer interface {
	Prepare(ctx context.Context, req engine.PrepareRequest) (engine.Prepared, error)
	Send(ctx context.Context, prepared engine.Prepared) (engine.SendOutcome, error)
}

// Result is the terminal state of one flow run. Exactly one of Outcome and
// Err is meaningful.
type Result struct {
	Outcome engine.SendOutcome
	Err     error
}

// Flow is one send-payment attempt. Safe for concurrent use; one payment
// per flow run.
type Flow struct {
	mu       sync.Mutex
	payer    Payer
	step     Step
	dest     classify.Destination
	amount   int64
	prepared engine.Prepared
	result   *Result
}

// New creates a flow at the input step.
func New(payer Payer) *Flow {
	return &Flow{payer: payer, step: StepInput}
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Destination returns the classified destination entered so far.
func (f *Flow) Destination() classify.Destination {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dest
}

// AmountSat returns the chosen amount in satoshis.
func (f *Flow) AmountSat() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amount
}

// Prepared returns the priced payment once the flow reaches confirmation.
func (f *Flow) Prepared() (engine.Prepared, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepConfirm && f.step != StepProcessing {
		return engine.Prepared{}, false
	}
	return f.prepared, true
}

// Result returns the terminal result once the flow reaches it.
func (f *Flow) Result() (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.result == nil {
		return Result{}, false
	}
	return *f.result, true
}

// SetDestination classifies the raw input and advances the flow. An
// invoice with an embedded amount is priced immediately and skips the
// amount step; everything else moves to amount entry. On any failure the
// flow stays at input.
func (f *Flow) SetDestination(ctx context.Context, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepInput {
		return f.stepError(StepInput)
	}

	dest, err := classify.Classify(raw)
	if err != nil {
		return err
	}

	if dest.HasAmount() {
		prepared, err := f.payer.Prepare(ctx, engine.PrepareRequest{
			Destination: dest.Raw,
			Kind:        string(dest.Kind),
			AmountSat:   dest.AmountSats(),
		})
		if err != nil {
			return err
		}

		f.dest = dest
		f.amount = dest.AmountSats()
		f.prepared = prepared
		f.step = StepConfirm
		return nil
	}

	f.dest = dest
	f.step = StepAmount
	return nil
}

// SetAmount records a positive amount and prices the payment, advancing to
// confirmation. On failure the flow stays at amount entry.
func (f *Flow) SetAmount(ctx context.Context, sats int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAmount {
		return f.stepError(StepAmount)
	}

	if sats <= 0 {
		return emberr.WithSuggestion(emberr.ErrAmountRequired,
			"enter a whole number of satoshis greater than zero")
	}

	prepared, err := f.payer.Prepare(ctx, engine.PrepareRequest{
		Destination: f.dest.Raw,
		Kind:        string(f.dest.Kind),
		AmountSat:   sats,
	})
	if err != nil {
		return err
	}

	f.amount = sats
	f.prepared = prepared
	f.step = StepConfirm
	return nil
}

// Execute sends the prepared payment. It runs exactly once per flow; the
// outcome, success or failure, lands in the result step and is never
// retried automatically.
func (f *Flow) Execute(ctx context.Context) error {
	f.mu.Lock()

	if f.step != StepConfirm {
		defer f.mu.Unlock()
		return f.stepError(StepConfirm)
	}
	if f.prepared.Token == "" {
		defer f.mu.Unlock()
		return emberr.Wrap(emberr.ErrFlowState, "no prepared payment to execute")
	}

	f.step = StepProcessing
	prepared := f.prepared
	f.mu.Unlock()

	outcome, err := f.payer.Send(ctx, prepared)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.step = StepResult
	f.result = &Result{Outcome: outcome, Err: err}
	return err
}

// Back steps the flow one step backward. From confirmation it returns to
// amount entry with the destination and amount preserved, discarding the
// prepared quote so the next SetAmount prices afresh. From amount entry it
// returns to input, discarding the destination.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.step {
	case StepConfirm:
		f.prepared = engine.Prepared{}
		f.step = StepAmount
		return nil
	case StepAmount:
		f.dest = classify.Destination{}
		f.amount = 0
		f.step = StepInput
		return nil
	default:
		return f.stepError(StepAmount)
	}
}

// Close resets the flow to a fresh input state, whatever step it is at.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dest = classify.Destination{}
	f.amount = 0
	f.prepared = engine.Prepared{}
	f.result = nil
	f.step = StepInput
}

// stepError reports an operation attempted at the wrong step.
func (f *Flow) stepError(want Step) error {
	return emberr.WithDetails(emberr.ErrFlowState, map[string]string{
		"step":     string(f.step),
		"expected": string(want),
	})
}
