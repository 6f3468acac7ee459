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
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyMask is returned when the truth matrix holds no observed ratings
// and the error metric is undefined.
var ErrEmptyMask = errors.New("no observed ratings in truth matrix")

// MSE computes the mean squared error between truth and predicted,
// restricted to the positions where truth is nonzero. Zero entries of truth
// mean "unobserved", not a rating of zero; a legitimate rating of exactly
// zero would be silently excluded, so callers must never produce one.
func MSE(truth, predicted mat.Matrix) (float64, error) {
	numRows, numCols := truth.Dims()
	predRows, predCols := predicted.Dims()
	if numRows != predRows || numCols != predCols {
		return 0, errors.NotValidf("shape mismatch: (%d,%d) vs (%d,%d)", numRows, numCols, predRows, predCols)
	}
	var sum float64
	var count int
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if observed := truth.At(i, j); observed != 0 {
				diff := observed - predicted.At(i, j)
				sum += diff * diff
				count++
			}
		}
	}
	if count == 0 {
		return 0, errors.Trace(ErrEmptyMask)
	}
	return sum / float64(count), nil
}
