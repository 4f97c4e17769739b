package optimizer

import "math"

// Epsilon keeps AdaGrad's denominator away from zero.
const Epsilon = 1e-6

// AdaGrad scales each parameter's step by the inverse square root of that parameter's
// historical squared-gradient sum. History is stored row-major and starts at zero.
type AdaGrad struct {
	rows    int
	cols    int
	lr      float64
	history []float64
}

// NewAdaGrad creates an AdaGrad optimizer for a (rows, cols) parameter matrix.
func NewAdaGrad(rows, cols int, lr float64) (*AdaGrad, error) {
	if err := checkShape(rows, cols); err != nil {
		return nil, err
	}
	return &AdaGrad{
		rows:    rows,
		cols:    cols,
		lr:      lr,
		history: make([]float64, rows*cols),
	}, nil
}

// Step accumulates grad² into the row's history and writes lr*g/(sqrt(history)+Epsilon) into dst.
func (a *AdaGrad) Step(row int, grad, dst []float64) error {
	if err := checkRow(row, a.rows, a.cols); err != nil {
		return err
	}
	if err := checkGrad(grad, dst, a.cols); err != nil {
		return err
	}
	h := a.history[row*a.cols : (row+1)*a.cols]
	for i, g := range grad {
		h[i] += g * g
		dst[i] = a.lr * g / (math.Sqrt(h[i]) + Epsilon)
	}
	return nil
}

// StepScalar is Step for the first column of row.
func (a *AdaGrad) StepScalar(row int, grad float64) (float64, error) {
	if err := checkRow(row, a.rows, a.cols); err != nil {
		return 0, err
	}
	i := row * a.cols
	a.history[i] += grad * grad
	return a.lr * grad / (math.Sqrt(a.history[i]) + Epsilon), nil
}

// Shape returns (rows, cols).
func (a *AdaGrad) Shape() (rows, cols int) {
	return a.rows, a.cols
}

// LearningRate returns the base learning rate.
func (a *AdaGrad) LearningRate() float64 {
	return a.lr
}

// History returns a copy of the squared-gradient sums for row.
func (a *AdaGrad) History(row int) ([]float64, error) {
	if err := checkRow(row, a.rows, a.cols); err != nil {
		return nil, err
	}
	out := make([]float64, a.cols)
	copy(out, a.history[row*a.cols:(row+1)*a.cols])
	return out, nil
}
