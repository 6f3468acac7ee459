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
	"github.com/juju/errors"
	"github.com/sorrel-io/sorrel/base/log"
	"github.com/sorrel-io/sorrel/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUserNotFound is returned when a prediction is requested for a user
	// without any observed rating.
	ErrUserNotFound = errors.NotFoundf("user")
	// ErrMovieNotFound is returned when a movie id falls outside the rows of
	// the movie factor matrix.
	ErrMovieNotFound = errors.NotFoundf("movie")
	// ErrRegularization is returned when the regularization coefficient is
	// not strictly positive.
	ErrRegularization = errors.NotValidf("regularization coefficient")
	// ErrFactorMismatch is returned when the requested number of factors
	// disagrees with the feature dimension of the movie factor matrix.
	ErrFactorMismatch = errors.NotValidf("number of factors")
	// ErrNotPositiveDefinite is returned when MᵀM + λI cannot be factorized.
	// Unreachable for λ > 0.
	ErrNotPositiveDefinite = errors.New("regularized gram matrix is not positive definite")
)

// ALS is an online matrix factorization model. The movie factor matrix is
// fixed; each observed (user, movie, rating) triple recomputes that user's
// latent vector in closed form:
//
//	p_u = (MᵀM + λI)⁻¹ Mᵀ r_u
//
// This is the user half of the classic alternating least squares step,
// applied per user on every new rating instead of over the whole matrix per
// epoch. Since M never changes, MᵀM + λI is factorized once at construction
// and each update costs a single triangular solve.
//
// Hyper-parameters:
//
//	Reg        - The ridge regularization coefficient λ. Required, must be
//	             strictly positive.
//	NFactors   - The number of latent factors. Default is 20.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors.
//	             Default is 0.1.
type ALS struct {
	model.BaseModel
	store *FactorStore
	// Hyper parameters
	reg        float64
	nFactors   int
	initMean   float64
	initStdDev float64
	// Cached Cholesky factorization of MᵀM + λI
	chol mat.Cholesky
}

// NewALS creates an online ALS model over a fixed movie factor matrix.
func NewALS(movieFactor *mat.Dense, params model.Params) (*ALS, error) {
	a := new(ALS)
	a.SetParams(params)
	if a.reg <= 0 {
		return nil, errors.Trace(ErrRegularization)
	}
	_, numFactors := movieFactor.Dims()
	if numFactors != a.nFactors {
		return nil, errors.Trace(ErrFactorMismatch)
	}
	a.store = NewFactorStore(movieFactor)
	// A = MᵀM + λI
	var mtm mat.Dense
	mtm.Mul(movieFactor.T(), movieFactor)
	gram := mat.NewSymDense(numFactors, nil)
	for i := 0; i < numFactors; i++ {
		for j := i; j < numFactors; j++ {
			v := mtm.At(i, j)
			if i == j {
				v += a.reg
			}
			gram.SetSym(i, j, v)
		}
	}
	if ok := a.chol.Factorize(gram); !ok {
		return nil, errors.Trace(ErrNotPositiveDefinite)
	}
	log.Logger().Debug("create als model",
		zap.Int("num_movies", a.store.NumMovies()),
		zap.Int("num_factors", numFactors),
		zap.Float64("reg", a.reg))
	return a, nil
}

// SetParams sets hyper-parameters for the ALS model.
func (a *ALS) SetParams(params model.Params) {
	a.BaseModel.SetParams(params)
	a.reg = a.Params.GetFloat64(model.Reg, 0)
	a.nFactors = a.Params.GetInt(model.NFactors, 20)
	a.initMean = a.Params.GetFloat64(model.InitMean, 0)
	a.initStdDev = a.Params.GetFloat64(model.InitStdDev, 0.1)
}

// Store returns the factor store owned by the model.
func (a *ALS) Store() *FactorStore {
	return a.store
}

// Observe records one (user, movie, rating) observation and recomputes the
// user's latent vector against the current rating vector. Ids are 1-based.
// A repeated rating for the same movie overwrites the previous value. Only
// the state of the observed user is mutated.
func (a *ALS) Observe(userId, movieId int, rating float64) error {
	movieIndex, err := a.movieIndex(movieId)
	if err != nil {
		return errors.Trace(err)
	}
	if userId < 1 {
		return errors.Trace(ErrUserNotFound)
	}
	state := a.store.GetOrCreate(userId-1, a.GetRandomGenerator(), a.initMean, a.initStdDev)
	previous := state.ratings[movieIndex]
	state.ratings[movieIndex] = rating
	state.rated.Set(uint(movieIndex))
	// b += (r - r_old)·M[movie], keeps b = Mᵀ r exactly since updates are
	// last-write-wins
	floats.AddScaled(state.proj, rating-previous, a.store.MovieFactor(movieIndex))
	// p_u = A⁻¹ b
	latent := mat.NewVecDense(a.nFactors, state.latent)
	if err := a.chol.SolveVecTo(latent, mat.NewVecDense(a.nFactors, state.proj)); err != nil {
		return errors.Trace(ErrNotPositiveDefinite)
	}
	return nil
}

// Predict returns the predicted rating given by a user to a movie, the dot
// product of the user's latent vector and the movie's factor row. The user
// must have been observed at least once.
func (a *ALS) Predict(userId, movieId int) (float64, error) {
	movieIndex, err := a.movieIndex(movieId)
	if err != nil {
		return 0, errors.Trace(err)
	}
	state, ok := a.store.Get(userId - 1)
	if !ok {
		return 0, errors.Trace(ErrUserNotFound)
	}
	return floats.Dot(state.latent, a.store.MovieFactor(movieIndex)), nil
}

// PredictMatrix builds the dense numUsers × numMovies prediction matrix
// P = U Mᵀ. Rows of users never observed stay zero.
func (a *ALS) PredictMatrix(numUsers int) *mat.Dense {
	userFactor := mat.NewDense(numUsers, a.nFactors, nil)
	for userIndex, state := range a.store.users {
		if userIndex < numUsers {
			userFactor.SetRow(userIndex, state.latent)
		}
	}
	predicted := mat.NewDense(numUsers, a.store.NumMovies(), nil)
	predicted.Mul(userFactor, a.store.movieFactor.T())
	return predicted
}

func (a *ALS) movieIndex(movieId int) (int, error) {
	if movieId < 1 || movieId > a.store.NumMovies() {
		return 0, errors.Trace(ErrMovieNotFound)
	}
	return movieId - 1, nil
}
