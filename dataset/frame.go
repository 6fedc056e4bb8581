package dataset

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// Table is raw tabular input: a header and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Frame is a table resolved through a schema.
type Frame struct {
	// IDs holds the identifier column, or row numbers when the schema has none.
	IDs []string
	// X is the n×p predictor matrix in schema predictor order.
	X *mat.Dense
	// Y is the target, nil when the table has no target column.
	Y *mat.VecDense
	// FeatureNames names the columns of X.
	FeatureNames []string
}

// Rows returns the number of observations.
func (f *Frame) Rows() int {
	r, _ := f.X.Dims()
	return r
}

// Resolve converts t into a Frame. requireTarget distinguishes the sold table
// (target mandatory) from the new table (target absent).
func (s Schema) Resolve(t Table, requireTarget bool) (*Frame, error) {
	const op = "dataset.Schema.Resolve"

	if len(t.Rows) == 0 {
		return nil, errors.NewModelError(op, "empty table", errors.ErrEmptyData)
	}

	b, err := s.bind(t.Header, requireTarget)
	if err != nil {
		return nil, err
	}

	n, p := len(t.Rows), len(b.predictors)
	frame := &Frame{
		IDs:          make([]string, n),
		X:            mat.NewDense(n, p, nil),
		FeatureNames: s.Predictors(),
	}
	if b.target >= 0 {
		frame.Y = mat.NewVecDense(n, nil)
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, errors.NewDimensionError(op, len(t.Header), len(row), 1)
		}
		if b.id >= 0 {
			frame.IDs[i] = row[b.id]
		} else {
			frame.IDs[i] = strconv.Itoa(i + 1)
		}
		for j, col := range b.predictors {
			v, err := parseCell(row[col])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", i+1, t.Header[col])
			}
			frame.X.Set(i, j, v)
		}
		if b.target >= 0 {
			v, err := parseCell(row[b.target])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d target column %q", i+1, t.Header[b.target])
			}
			frame.Y.SetVec(i, v)
		}
	}

	if err := errors.CheckMatrix(op, frame.X); err != nil {
		return nil, err
	}
	if frame.Y != nil {
		if err := errors.CheckVector(op, frame.Y); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// parseCell accepts numbers and the booleans TRUE/FALSE as 1/0.
func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToUpper(cell) {
	case "TRUE":
		return 1, nil
	case "FALSE":
		return 0, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.NewValueError("dataset.parseCell", "not a number: "+strconv.Quote(cell))
	}
	return v, nil
}
