// Package calculator implements the operand/operator state machine of a
// two-operand arithmetic calculator.
//
// Operands are kept as text while they are typed so that trailing decimal
// points and leading zeros survive entry. Evaluation is strictly left to
// right: choosing a second operator resolves the pending one first.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sivchari/gocalc/internal/config"
)

// Phase is the position of the engine in its state machine.
type Phase string

const (
	// PhaseFirstOperand means no operator is pending.
	PhaseFirstOperand Phase = "first_operand"
	// PhaseOperatorChosen means an operator is pending and no second operand was typed yet.
	PhaseOperatorChosen Phase = "operator_chosen"
	// PhaseSecondOperand means an operator is pending and the second operand is being typed.
	PhaseSecondOperand Phase = "second_operand"
	// PhaseError means a result could not be represented; only Clear leaves it.
	PhaseError Phase = "error"
)

// Computation describes one evaluated operation.
type Computation struct {
	Left     string
	Operator Operator
	Right    string
	Result   string
	Err      error
}

// Recorder receives every computation the engine evaluates.
type Recorder interface {
	Record(c Computation)
}

// State is a snapshot of the engine for presentation adapters.
type State struct {
	Current        string   `json:"current"`
	Previous       string   `json:"previous,omitempty"`
	Operator       Operator `json:"operator,omitempty"`
	Display        string   `json:"display"`
	DecimalAllowed bool     `json:"decimalAllowed"`
	Phase          Phase    `json:"phase"`
}

// pendingOp pairs an operator with its first operand so that one can never
// be set without the other.
type pendingOp struct {
	operator Operator
	operand  string
}

// Engine holds the calculator state. It is not safe for concurrent use.
type Engine struct {
	maxDisplayLength int
	maxMagnitude     float64
	precision        int

	current string
	pending *pendingOp
	fault   error

	recorder Recorder
}

// New creates an engine using the limits from cfg. A nil cfg uses defaults.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Engine{
		maxDisplayLength: cfg.Engine.MaxDisplayLength,
		maxMagnitude:     cfg.Engine.MaxMagnitude,
		precision:        cfg.Engine.Precision,
	}
}

// SetRecorder installs r to receive evaluated computations. A nil r disables recording.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// AppendDigit appends d to the current operand. The call is ignored when the
// display is full or the operand would exceed the magnitude ceiling.
func (e *Engine) AppendDigit(d int) error {
	if d < 0 || d > 9 {
		return fmt.Errorf("%w: %d", ErrInvalidDigit, d)
	}

	if e.fault != nil {
		return nil
	}

	if len(e.Display()) >= e.maxDisplayLength {
		return nil
	}

	next := e.current + strconv.Itoa(d)
	if v, err := parseOperand(next); err == nil && math.Abs(v) > e.maxMagnitude {
		return nil
	}

	e.current = next

	return nil
}

// AppendDecimalPoint appends "." unless the current operand already has one.
func (e *Engine) AppendDecimalPoint() {
	if e.fault != nil || strings.Contains(e.current, ".") {
		return
	}

	e.current += "."
}

// ChooseOperator makes op the pending operator and moves the current operand
// into the previous slot. A pending operation is evaluated first. Nothing
// happens while the current operand is empty.
func (e *Engine) ChooseOperator(op Operator) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}

	if e.fault != nil || e.current == "" {
		return nil
	}

	if e.pending != nil {
		if err := e.Compute(); err != nil {
			if errors.Is(err, ErrParseFailure) {
				return nil
			}

			return err
		}
	}

	e.pending = &pendingOp{operator: op, operand: e.current}
	e.current = ""

	return nil
}

// Compute evaluates the pending operation and stores the result as the
// current operand.
func (e *Engine) Compute() error {
	if e.fault != nil || e.pending == nil {
		return nil
	}

	c := Computation{
		Left:     e.pending.operand,
		Operator: e.pending.operator,
		Right:    e.current,
	}

	left, err := parseOperand(c.Left)
	if err != nil {
		return err
	}

	right, err := parseOperand(c.Right)
	if err != nil {
		return err
	}

	result, err := c.Operator.apply(left, right)
	if err != nil {
		e.Clear()
		c.Err = err
		e.record(c)

		return err
	}

	switch {
	case math.IsNaN(result):
		e.fail(ErrInvalidResult)
	case math.Abs(result) > e.maxMagnitude:
		e.fail(ErrMagnitudeOverflow)
	}

	if e.fault != nil {
		c.Err = e.fault
		e.record(c)

		return e.fault
	}

	if result != math.Trunc(result) {
		result = round(result, e.precision)
	}

	e.current = formatNumber(result)
	e.pending = nil
	c.Result = e.current
	e.record(c)

	return nil
}

// Equals evaluates the pending operation when both operands are present.
// Operands that do not parse leave the state untouched and are not reported.
func (e *Engine) Equals() error {
	if e.fault != nil || e.pending == nil || e.current == "" {
		return nil
	}

	err := e.Compute()
	if errors.Is(err, ErrParseFailure) {
		return nil
	}

	return err
}

// Clear returns the engine to its initial state.
func (e *Engine) Clear() {
	e.current = ""
	e.pending = nil
	e.fault = nil
}

// DeleteLastChar removes the last character of the current operand.
func (e *Engine) DeleteLastChar() {
	if e.fault != nil || e.current == "" {
		return
	}

	e.current = e.current[:len(e.current)-1]
}

// DecimalPointAllowed reports whether a decimal point may still be entered.
func (e *Engine) DecimalPointAllowed() bool {
	return e.fault == nil && !strings.Contains(e.current, ".")
}

// Display returns the text to show for the current state.
func (e *Engine) Display() string {
	if e.pending != nil {
		return fmt.Sprintf("%s %s %s", e.pending.operand, e.pending.operator.Symbol(), e.current)
	}

	return e.current
}

// Fault returns the error that put the engine in the error state, or nil.
func (e *Engine) Fault() error {
	return e.fault
}

// Phase returns the current state machine position.
func (e *Engine) Phase() Phase {
	switch {
	case e.fault != nil:
		return PhaseError
	case e.pending == nil:
		return PhaseFirstOperand
	case e.current == "":
		return PhaseOperatorChosen
	default:
		return PhaseSecondOperand
	}
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	s := State{
		Current:        e.current,
		Display:        e.Display(),
		DecimalAllowed: e.DecimalPointAllowed(),
		Phase:          e.Phase(),
	}

	if e.pending != nil {
		s.Previous = e.pending.operand
		s.Operator = e.pending.operator
	}

	return s
}

func (e *Engine) fail(err error) {
	e.fault = err
	e.pending = nil
	e.current = faultDisplay(err)
}

func (e *Engine) record(c Computation) {
	if e.recorder != nil {
		e.recorder.Record(c)
	}
}

func parseOperand(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParseFailure, s)
	}

	return v, nil
}

func round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))

	return math.Round(v*scale) / scale
}

func formatNumber(v float64) string {
	if v == 0 {
		// Normalise negative zero.
		v = 0
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}
