// Package keymap translates key names into calculator engine operations.
//
// Key names follow the browser KeyboardEvent.key convention ("7", "+",
// "Enter", "Backspace", ...) so the same table serves the terminal and the
// browser adapters.
package keymap

import (
	"fmt"

	"github.com/sivchari/gocalc/internal/calculator"
)

// Kind identifies the engine operation an Action triggers.
type Kind int

const (
	// KindDigit appends a digit.
	KindDigit Kind = iota + 1
	// KindDecimalPoint appends a decimal point.
	KindDecimalPoint
	// KindOperator chooses an operator.
	KindOperator
	// KindEquals evaluates the pending operation.
	KindEquals
	// KindClear resets the engine.
	KindClear
	// KindDelete removes the last character of the current operand.
	KindDelete
)

// Key names that are not single characters.
const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
)

// Action is a resolved key press.
type Action struct {
	Kind     Kind
	Digit    int
	Operator calculator.Operator
}

// Lookup resolves key to an Action. Unknown keys report false.
func Lookup(key string) (Action, bool) {
	switch key {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return Action{Kind: KindDigit, Digit: int(key[0] - '0')}, true
	case ".":
		return Action{Kind: KindDecimalPoint}, true
	case KeyEnter, "=":
		return Action{Kind: KindEquals}, true
	case "c", "C", KeyEscape:
		return Action{Kind: KindClear}, true
	case KeyBackspace:
		return Action{Kind: KindDelete}, true
	}

	if op, ok := calculator.ParseOperator(key); ok {
		return Action{Kind: KindOperator, Operator: op}, true
	}

	return Action{}, false
}

// Apply runs a on the engine.
func Apply(e *calculator.Engine, a Action) error {
	switch a.Kind {
	case KindDigit:
		return e.AppendDigit(a.Digit)
	case KindDecimalPoint:
		e.AppendDecimalPoint()
	case KindOperator:
		return e.ChooseOperator(a.Operator)
	case KindEquals:
		return e.Equals()
	case KindClear:
		e.Clear()
	case KindDelete:
		e.DeleteLastChar()
	default:
		return fmt.Errorf("unknown action kind %d", a.Kind)
	}

	return nil
}

// Press looks key up and applies it. It reports whether the key was handled;
// unknown keys are ignored.
func Press(e *calculator.Engine, key string) (bool, error) {
	a, ok := Lookup(key)
	if !ok {
		return false, nil
	}

	return true, Apply(e, a)
}

// KeysFromLine splits a line of terminal input into key names. "=" becomes
// Enter, "<" and the BS/DEL control bytes become Backspace, and whitespace
// is skipped.
func KeysFromLine(line string) []string {
	keys := make([]string, 0, len(line))

	for _, r := range line {
		switch {
		case r == '=':
			keys = append(keys, KeyEnter)
		case r == '<' || r == '\b' || r == 0x7f:
			keys = append(keys, KeyBackspace)
		case r == 0x1b:
			keys = append(keys, KeyEscape)
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			continue
		default:
			keys = append(keys, string(r))
		}
	}

	return keys
}

// Describe returns a short human readable description of a, used in verbose logs.
func Describe(a Action) string {
	switch a.Kind {
	case KindDigit:
		return fmt.Sprintf("digit %d", a.Digit)
	case KindDecimalPoint:
		return "decimal point"
	case KindOperator:
		return "operator " + a.Operator.Name()
	case KindEquals:
		return "equals"
	case KindClear:
		return "clear"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown %d", a.Kind)
	}
}
