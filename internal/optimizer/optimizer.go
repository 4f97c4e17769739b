// Package optimizer provides per-parameter update rules for embedding training.
package optimizer

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a row outside the optimizer's shape is addressed.
	ErrIndexOutOfRange = errors.New("optimizer: index out of range")
	// ErrShapeMismatch is returned when a gradient does not match the optimizer's row width.
	ErrShapeMismatch = errors.New("optimizer: gradient shape mismatch")
	// ErrBadShape is returned when an optimizer is created with a non-positive dimension.
	ErrBadShape = errors.New("optimizer: non-positive dimension not allowed")
)

// Optimizer converts raw gradients into update steps for a (rows, cols) parameter matrix.
// A step is subtracted from the parameter by the caller.
type Optimizer interface {
	// Step writes the update step for grad into dst. grad and dst must have Cols() entries
	// and may alias.
	Step(row int, grad, dst []float64) error
	// StepScalar returns the update step for a single-column parameter.
	StepScalar(row int, grad float64) (float64, error)
	// Shape returns the parameter shape the optimizer was built for.
	Shape() (rows, cols int)
}

// New returns an AdaGrad optimizer when adaptive is true, plain SGD otherwise.
func New(rows, cols int, lr float64, adaptive bool) (Optimizer, error) {
	if adaptive {
		return NewAdaGrad(rows, cols, lr)
	}
	return NewSGD(rows, cols, lr)
}

func checkShape(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrBadShape, rows, cols)
	}
	return nil
}

func checkRow(row, rows, cols int) error {
	if row < 0 || row >= rows {
		return fmt.Errorf("%w: row %d, shape (%d, %d)", ErrIndexOutOfRange, row, rows, cols)
	}
	return nil
}

func checkGrad(grad, dst []float64, cols int) error {
	if len(grad) != cols || len(dst) != cols {
		return fmt.Errorf("%w: got %d/%d, want %d", ErrShapeMismatch, len(grad), len(dst), cols)
	}
	return nil
}
