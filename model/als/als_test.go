// Copyright 2026 sorrel Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package als

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sorrel-io/sorrel/model"
)

// rows (1,0), (0,1), (1,1) give the gram matrix [[2,1],[1,2]]
func newTestMovieFactor() *mat.Dense {
	return mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
}

func newTestParams() model.Params {
	return model.Params{
		model.Reg:      0.1,
		model.NFactors: 2,
	}
}

func TestNewALS_InvalidArguments(t *testing.T) {
	_, err := NewALS(newTestMovieFactor(), model.Params{model.NFactors: 2})
	assert.ErrorIs(t, err, ErrRegularization)
	_, err = NewALS(newTestMovieFactor(), model.Params{model.Reg: -0.1, model.NFactors: 2})
	assert.ErrorIs(t, err, ErrRegularization)
	// default NFactors is 20, the matrix has 2 columns
	_, err = NewALS(newTestMovieFactor(), model.Params{model.Reg: 0.1})
	assert.ErrorIs(t, err, ErrFactorMismatch)
}

func TestALS_ObserveAndPredict(t *testing.T) {
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.NoError(t, m.Observe(1, 2, 5.0))

	// latent solves (MᵀM + λI) p = Mᵀ r with r = (0, 5, 0):
	// [[2.1, 1], [1, 2.1]] p = (0, 5)  =>  p = (-5, 10.5) / 3.41
	state, ok := m.Store().Get(0)
	assert.True(t, ok)
	assert.Len(t, state.LatentVector(), 2)
	assert.InDelta(t, -5.0/3.41, state.LatentVector()[0], 1e-9)
	assert.InDelta(t, 10.5/3.41, state.LatentVector()[1], 1e-9)

	predicted, err := m.Predict(1, 2)
	assert.NoError(t, err)
	assert.False(t, math.IsNaN(predicted) || math.IsInf(predicted, 0))
	assert.InDelta(t, 10.5/3.41, predicted, 1e-9)
}

func TestALS_NormalEquations(t *testing.T) {
	// the latent vector is never stale: after every observation it solves
	// the normal equations against the current rating vector exactly
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	observations := []struct {
		movieId int
		rating  float64
	}{{1, 4}, {3, 2}, {1, 5}, {2, 3}}
	ratings := make([]float64, 3)
	for _, o := range observations {
		assert.NoError(t, m.Observe(7, o.movieId, o.rating))
		ratings[o.movieId-1] = o.rating
		state, ok := m.Store().Get(6)
		assert.True(t, ok)
		p := state.LatentVector()
		for i := 0; i < 2; i++ {
			// (MᵀM + λI) p = Mᵀ r, row i
			var lhs, rhs float64
			for j := 0; j < 2; j++ {
				var gram float64
				for k := 0; k < 3; k++ {
					factors := m.Store().MovieFactor(k)
					gram += factors[i] * factors[j]
				}
				if i == j {
					gram += 0.1
				}
				lhs += gram * p[j]
			}
			for k := 0; k < 3; k++ {
				rhs += m.Store().MovieFactor(k)[i] * ratings[k]
			}
			assert.InDelta(t, rhs, lhs, 1e-9)
		}
	}
}

func TestALS_Idempotence(t *testing.T) {
	once, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	twice, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.NoError(t, once.Observe(1, 2, 5.0))
	assert.NoError(t, twice.Observe(1, 2, 5.0))
	assert.NoError(t, twice.Observe(1, 2, 5.0))
	a, _ := once.Store().Get(0)
	b, _ := twice.Store().Get(0)
	assert.Equal(t, a.LatentVector(), b.LatentVector())
	assert.Equal(t, a.RatedCount(), b.RatedCount())
}

func TestALS_LastWriteWins(t *testing.T) {
	overwrite, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	direct, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.NoError(t, overwrite.Observe(1, 2, 1.0))
	assert.NoError(t, overwrite.Observe(1, 2, 5.0))
	assert.NoError(t, direct.Observe(1, 2, 5.0))
	a, _ := overwrite.Store().Get(0)
	b, _ := direct.Store().Get(0)
	assert.InDeltaSlice(t, b.LatentVector(), a.LatentVector(), 1e-12)
	assert.Equal(t, 1, a.RatedCount())
}

func TestALS_MonotonicGrowth(t *testing.T) {
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	previous := 0
	for _, movieId := range []int{2, 2, 1, 3, 1} {
		assert.NoError(t, m.Observe(1, movieId, 3.5))
		state, _ := m.Store().Get(0)
		assert.GreaterOrEqual(t, state.RatedCount(), previous)
		previous = state.RatedCount()
	}
	state, _ := m.Store().Get(0)
	assert.Equal(t, 3, state.RatedCount())
}

func TestALS_Determinism(t *testing.T) {
	run := func() []float64 {
		m, err := NewALS(newTestMovieFactor(), model.Params{
			model.Reg:         0.1,
			model.NFactors:    2,
			model.RandomState: 42,
		})
		assert.NoError(t, err)
		assert.NoError(t, m.Observe(1, 1, 4.0))
		assert.NoError(t, m.Observe(2, 3, 2.0))
		assert.NoError(t, m.Observe(1, 2, 5.0))
		a, _ := m.Predict(1, 2)
		b, _ := m.Predict(2, 1)
		return []float64{a, b}
	}
	assert.Equal(t, run(), run())
}

func TestALS_Shrinkage(t *testing.T) {
	// with overwhelming regularization the solve collapses to zero
	m, err := NewALS(newTestMovieFactor(), model.Params{
		model.Reg:      1e6,
		model.NFactors: 2,
	})
	assert.NoError(t, err)
	assert.NoError(t, m.Observe(1, 2, 5.0))
	state, _ := m.Store().Get(0)
	assert.Less(t, floats.Norm(state.LatentVector(), 2), 1e-4)
}

func TestALS_OutOfRange(t *testing.T) {
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.ErrorIs(t, m.Observe(1, 0, 5.0), ErrMovieNotFound)
	assert.ErrorIs(t, m.Observe(1, 4, 5.0), ErrMovieNotFound)
	assert.ErrorIs(t, m.Observe(0, 1, 5.0), ErrUserNotFound)
	_, err = m.Predict(1, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, m.Observe(1, 1, 5.0))
	_, err = m.Predict(1, 4)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	// the failed observations touched no state
	state, _ := m.Store().Get(0)
	assert.Equal(t, 1, state.RatedCount())
}

func TestALS_ObserveIsolation(t *testing.T) {
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.NoError(t, m.Observe(1, 1, 4.0))
	before, _ := m.Store().Get(0)
	snapshot := append([]float64(nil), before.LatentVector()...)
	assert.NoError(t, m.Observe(2, 2, 3.0))
	after, _ := m.Store().Get(0)
	assert.Equal(t, snapshot, after.LatentVector())
	assert.Equal(t, 2, m.Store().CountUsers())
}

func TestALS_PredictMatrix(t *testing.T) {
	m, err := NewALS(newTestMovieFactor(), newTestParams())
	assert.NoError(t, err)
	assert.NoError(t, m.Observe(1, 2, 5.0))
	predicted := m.PredictMatrix(2)
	numRows, numCols := predicted.Dims()
	assert.Equal(t, 2, numRows)
	assert.Equal(t, 3, numCols)
	expected, err := m.Predict(1, 2)
	assert.NoError(t, err)
	assert.InDelta(t, expected, predicted.At(0, 1), 1e-9)
	// user 2 was never observed
	assert.Equal(t, 0.0, predicted.At(1, 0))
}
