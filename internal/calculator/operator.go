package calculator

import "math"

// Operator is a binary arithmetic operation waiting for its second operand.
type Operator string

const (
	// Add sums both operands.
	Add Operator = "+"
	// Subtract subtracts the second operand from the first.
	Subtract Operator = "-"
	// Multiply multiplies both operands.
	Multiply Operator = "*"
	// Divide divides the first operand by the second.
	Divide Operator = "/"
	// Power raises the first operand to the second.
	Power Operator = "^"
	// Percent takes the second operand as a percentage of the first.
	Percent Operator = "%"
)

// Operators lists every supported operator in keypad order.
var Operators = []Operator{Add, Subtract, Multiply, Divide, Power, Percent}

// ParseOperator returns the operator for a symbol such as "+" or "^".
func ParseOperator(symbol string) (Operator, bool) {
	op := Operator(symbol)

	return op, op.Valid()
}

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	switch o {
	case Add, Subtract, Multiply, Divide, Power, Percent:
		return true
	}

	return false
}

// Symbol returns the text shown on the display for o.
func (o Operator) Symbol() string {
	return string(o)
}

// Name returns a lower-case name for o, used in logs and reports.
func (o Operator) Name() string {
	switch o {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	case Power:
		return "power"
	case Percent:
		return "percent"
	default:
		return "none"
	}
}

// apply evaluates left o right. Division by zero is the only failure.
func (o Operator) apply(left, right float64) (float64, error) {
	switch o {
	case Add:
		return left + right, nil
	case Subtract:
		return left - right, nil
	case Multiply:
		return left * right, nil
	case Divide:
		if right == 0 {
			return 0, ErrDivisionByZero
		}

		return left / right, nil
	case Power:
		return math.Pow(left, right), nil
	case Percent:
		return (left / 100) * right, nil
	default:
		return 0, ErrUnknownOperator
	}
}
