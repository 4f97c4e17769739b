package optimizer

// SGD returns lr*g with no per-parameter state. Used when adaptive updates are disabled.
type SGD struct {
	rows int
	cols int
	lr   float64
}

// NewSGD creates a plain gradient-descent optimizer for a (rows, cols) parameter matrix.
func NewSGD(rows, cols int, lr float64) (*SGD, error) {
	if err := checkShape(rows, cols); err != nil {
		return nil, err
	}
	return &SGD{rows: rows, cols: cols, lr: lr}, nil
}

// Step writes lr*grad into dst.
func (s *SGD) Step(row int, grad, dst []float64) error {
	if err := checkRow(row, s.rows, s.cols); err != nil {
		return err
	}
	if err := checkGrad(grad, dst, s.cols); err != nil {
		return err
	}
	for i, g := range grad {
		dst[i] = s.lr * g
	}
	return nil
}

// StepScalar returns lr*grad.
func (s *SGD) StepScalar(row int, grad float64) (float64, error) {
	if err := checkRow(row, s.rows, s.cols); err != nil {
		return 0, err
	}
	return s.lr * grad, nil
}

// Shape returns (rows, cols).
func (s *SGD) Shape() (rows, cols int) {
	return s.rows, s.cols
}
