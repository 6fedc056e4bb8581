package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("OLS", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "OLS", nf.ModelName)

	s.SetDimensions(5, 65)
	s.SetFitted()
	assert.NoError(t, s.RequireFitted("OLS", "Predict"))
	assert.NoError(t, s.RequireFeatures("OLS.Predict", 5))

	err = s.RequireFeatures("OLS.Predict", 4)
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 5, dim.Expected)

	s.Reset()
	p, n := s.GetDimensions()
	assert.False(t, s.IsFitted())
	assert.Zero(t, p)
	assert.Zero(t, n)
}
