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

package dataset

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/sorrel-io/sorrel/base"
	"gonum.org/v1/gonum/mat"
)

// Split reserves perUser randomly chosen ratings of each user as a held-out
// evaluation set and returns the remaining observations as the training
// stream. Held-out ratings are returned as a dense numUsers × numMovies
// truth matrix where zero means "unobserved". Users with perUser or fewer
// ratings keep their whole stream in the training set. The split is
// deterministic under a fixed seed.
func Split(data *Dataset, numUsers, numMovies, perUser int, seed int64) (*Dataset, *mat.Dense, error) {
	for _, r := range data.Ratings {
		if r.UserId < 1 || r.UserId > numUsers {
			return nil, nil, errors.NotValidf("user id %d out of range [1, %d]", r.UserId, numUsers)
		}
		if r.MovieId < 1 || r.MovieId > numMovies {
			return nil, nil, errors.NotValidf("movie id %d out of range [1, %d]", r.MovieId, numMovies)
		}
	}
	rng := base.NewRandomGenerator(seed)
	truth := mat.NewDense(numUsers, numMovies, nil)
	train := new(Dataset)
	grouped := data.GroupByUser()
	userIds := lo.Keys(grouped)
	sort.Ints(userIds)
	for _, userId := range userIds {
		ratings := grouped[userId]
		if len(ratings) <= perUser {
			train.Ratings = append(train.Ratings, ratings...)
			continue
		}
		heldOut := mapset.NewSet(rng.Sample(0, len(ratings), perUser)...)
		for i, r := range ratings {
			if heldOut.Contains(i) {
				truth.Set(r.UserId-1, r.MovieId-1, r.Value)
			} else {
				train.Ratings = append(train.Ratings, r)
			}
		}
	}
	return train, truth, nil
}
