// Package style compiles wizard configurations into renderer style trees and
// legend fragments.
package style

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Expr is a node of a style expression: an operator applied to operands.
// Operands are literals (string, float64, bool, nil) or nested *Expr.
// It encodes as the renderer's array form: ["op", operand...].
type Expr struct {
	Op   string
	Args []any
}

func newExpr(op string, args ...any) *Expr {
	return &Expr{Op: op, Args: args}
}

// Array returns the array form of the expression.
func (e *Expr) Array() []any {
	out := make([]any, 0, len(e.Args)+1)
	out = append(out, e.Op)
	for _, a := range e.Args {
		if sub, ok := a.(*Expr); ok {
			out = append(out, sub.Array())
			continue
		}
		out = append(out, a)
	}
	return out
}

func (e *Expr) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", e.Op, err)
	}
	return string(b)
}

func (e *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Array())
}

func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(e.Array())
}

// Get reads a feature property.
func Get(field string) *Expr { return newExpr("get", field) }

// Has tests the presence of a feature property.
func Has(field string) *Expr { return newExpr("has", field) }

// Typeof returns the type name of its operand.
func Typeof(v any) *Expr { return newExpr("typeof", v) }

// Eq compares two operands.
func Eq(a, b any) *Expr { return newExpr("==", a, b) }

// Case returns then when cond holds, otherwise els.
func Case(cond, then, els any) *Expr { return newExpr("case", cond, then, els) }

// Negate returns the opposite of its operand.
func Negate(v any) *Expr { return newExpr("-", v) }

// Div divides a by b.
func Div(a, b any) *Expr { return newExpr("/", a, b) }

// Sqrt is the square root of its operand.
func Sqrt(v any) *Expr { return newExpr("sqrt", v) }

// Pi is the constant π.
func Pi() *Expr { return newExpr("pi") }

// Step returns base below the first stop, then the output of the last stop
// whose input is less than or equal to the value. stops alternate input, output.
func Step(input, base any, stops ...any) *Expr {
	return newExpr("step", append([]any{input, base}, stops...)...)
}

// InterpolateLinear maps input linearly between stops (input, output pairs).
func InterpolateLinear(input any, stops ...any) *Expr {
	return newExpr("interpolate", append([]any{newExpr("linear"), input}, stops...)...)
}

// Match compares input to labels; pairs alternate label, output and fallback
// is used when no label matches.
func Match(input any, pairs []any, fallback any) *Expr {
	args := make([]any, 0, len(pairs)+2)
	args = append(args, input)
	args = append(args, pairs...)
	return newExpr("match", append(args, fallback)...)
}

// noValueCondition returns value for numeric features and noValue for the others.
func noValueCondition(field string, value, noValue any) any {
	if noValue == nil || field == "" {
		return value
	}
	return Case(Eq(Typeof(Get(field)), "number"), value, noValue)
}
