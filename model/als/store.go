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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/sorrel-io/sorrel/base"
	"github.com/sorrel-io/sorrel/base/log"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// LoadMovieFactors parses a rectangular numeric table from a delimited text
// file into the fixed movie factor matrix. The file has no header; each row
// holds the latent factors of one movie:
//
//	<factor 1> <sep> <factor 2> <sep> ... <sep> <factor k>
//
// Rows with inconsistent column counts or non-numeric fields fail fast
// instead of being silently truncated.
func LoadMovieFactors(path, sep string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "open movie factor file %s", path)
	}
	defer file.Close()
	var (
		data    []float64
		numRows int
		numCols int
		lineNum int
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, sep)
		if numRows == 0 {
			numCols = len(fields)
		} else if len(fields) != numCols {
			return nil, errors.NotValidf("row %d: expected %d columns, found %d", lineNum, numCols, len(fields))
		}
		for i, field := range fields {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NotValidf("row %d column %d: %q is not a number", lineNum, i+1, field)
			}
			data = append(data, value)
		}
		numRows++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "read movie factor file %s", path)
	}
	if numRows == 0 {
		return nil, errors.NotValidf("movie factor file %s: empty table", path)
	}
	log.Logger().Info("load movie factors",
		zap.String("path", path),
		zap.Int("num_movies", numRows),
		zap.Int("num_factors", numCols))
	return mat.NewDense(numRows, numCols, data), nil
}

// UserState is the mutable per-user state: the ratings observed so far, the
// accumulated projection of those ratings onto the movie factors, and the
// latent vector solved against them. A rating of exactly zero is
// indistinguishable from "unobserved" downstream, so callers must never
// submit zero as a legitimate rating.
type UserState struct {
	ratings map[int]float64 // sparse rating vector, movie index -> rating
	rated   *bitset.BitSet  // movies rated so far, grows monotonically
	proj    []float64       // b = r·M, updated incrementally
	latent  []float64       // solved latent vector
}

// Rating returns the stored rating for a movie index and whether the movie
// has been rated.
func (state *UserState) Rating(movieIndex int) (float64, bool) {
	rating, ok := state.ratings[movieIndex]
	return rating, ok
}

// RatedCount returns the number of distinct movies rated so far.
func (state *UserState) RatedCount() int {
	return int(state.rated.Count())
}

// LatentVector returns the user's latent vector. The slice is owned by the
// state and must not be modified.
func (state *UserState) LatentVector() []float64 {
	return state.latent
}

// FactorStore owns the fixed movie factor matrix and the live mapping from
// user index to UserState. The matrix is immutable after construction; user
// states are created lazily and never deleted within a session.
type FactorStore struct {
	movieFactor *mat.Dense
	numMovies   int
	numFactors  int
	users       map[int]*UserState
}

// NewFactorStore creates a FactorStore around a fixed movie factor matrix.
func NewFactorStore(movieFactor *mat.Dense) *FactorStore {
	numMovies, numFactors := movieFactor.Dims()
	return &FactorStore{
		movieFactor: movieFactor,
		numMovies:   numMovies,
		numFactors:  numFactors,
		users:       make(map[int]*UserState),
	}
}

// NumMovies returns the number of rows of the movie factor matrix.
func (store *FactorStore) NumMovies() int {
	return store.numMovies
}

// NumFactors returns the feature dimension shared by every latent vector.
func (store *FactorStore) NumFactors() int {
	return store.numFactors
}

// MovieFactor returns the factor row of a movie index. The slice aliases the
// matrix storage and must not be modified.
func (store *FactorStore) MovieFactor(movieIndex int) []float64 {
	return store.movieFactor.RawRowView(movieIndex)
}

// Get returns the state of a user index, if present.
func (store *FactorStore) Get(userIndex int) (*UserState, bool) {
	state, ok := store.users[userIndex]
	return state, ok
}

// GetOrCreate returns the existing state of a user index or registers a
// fresh one with no ratings and the latent vector drawn from rng.
func (store *FactorStore) GetOrCreate(userIndex int, rng base.RandomGenerator, initMean, initStdDev float64) *UserState {
	if state, ok := store.users[userIndex]; ok {
		return state
	}
	state := &UserState{
		ratings: make(map[int]float64),
		rated:   bitset.New(uint(store.numMovies)),
		proj:    make([]float64, store.numFactors),
		latent:  rng.NormalVector(store.numFactors, initMean, initStdDev),
	}
	store.users[userIndex] = state
	return state
}

// CountUsers returns the number of registered users.
func (store *FactorStore) CountUsers() int {
	return len(store.users)
}
