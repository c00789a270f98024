package calculator

import "errors"

var (
	// ErrParseFailure is returned when an operand is not a decimal number.
	// Adapters treat it as a silent abort.
	ErrParseFailure = errors.New("operand is not a number")

	// ErrDivisionByZero is returned when the divisor is zero. The engine is
	// reset before it is returned.
	ErrDivisionByZero = errors.New("division by zero is not allowed")

	// ErrMagnitudeOverflow is returned when a result exceeds the magnitude
	// ceiling. The engine is left in the error state.
	ErrMagnitudeOverflow = errors.New("number is too large")

	// ErrInvalidResult is returned when a result is not a finite number,
	// e.g. a negative base raised to a fractional power.
	ErrInvalidResult = errors.New("result is not a number")

	// ErrInvalidDigit is returned by AppendDigit for values outside 0-9.
	ErrInvalidDigit = errors.New("invalid digit")

	// ErrUnknownOperator is returned for operators outside the supported set.
	ErrUnknownOperator = errors.New("unknown operator")
)

// faultDisplay returns the sentinel shown while the engine is in the error state.
func faultDisplay(err error) string {
	switch {
	case errors.Is(err, ErrMagnitudeOverflow):
		return "Error: Number is too large"
	case errors.Is(err, ErrInvalidResult):
		return "Error: Result is not a number"
	default:
		return "Error"
	}
}

// AlertMessage returns the text adapters show the user for err, or "" when
// err is not one the user must be told about.
func AlertMessage(err error) string {
	if errors.Is(err, ErrDivisionByZero) {
		return "Error: Division by zero is not allowed"
	}

	return ""
}
