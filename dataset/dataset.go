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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/sorrel-io/sorrel/base/log"
	"go.uber.org/zap"
)

// Rating is one (user, movie, rating) observation. Ids are 1-based external
// identifiers.
type Rating struct {
	UserId  int
	MovieId int
	Value   float64
}

// Dataset is an ordered stream of rating observations.
type Dataset struct {
	Ratings []Rating
}

// Count returns the number of observations.
func (dataset *Dataset) Count() int {
	return len(dataset.Ratings)
}

// Add appends one observation to the stream.
func (dataset *Dataset) Add(userId, movieId int, value float64) {
	dataset.Ratings = append(dataset.Ratings, Rating{UserId: userId, MovieId: movieId, Value: value})
}

// GroupByUser groups observations by user id, preserving stream order
// within each user.
func (dataset *Dataset) GroupByUser() map[int][]Rating {
	return lo.GroupBy(dataset.Ratings, func(r Rating) int {
		return r.UserId
	})
}

// LoadRatings loads a rating stream from a delimited file. Each line is:
//
//	<userId> <sep> <movieId> <sep> <rating> [<sep> <extras>]
//
// Extra trailing fields (such as timestamps) are ignored. Malformed rows
// fail fast.
func LoadRatings(path, sep string, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "open rating file %s", path)
	}
	defer file.Close()
	dataset := new(Dataset)
	lineNum := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if hasHeader {
			hasHeader = false
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 3 {
			return nil, errors.NotValidf("row %d: expected at least 3 fields, found %d", lineNum, len(fields))
		}
		userId, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, errors.NotValidf("row %d: user id %q is not an integer", lineNum, fields[0])
		}
		movieId, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, errors.NotValidf("row %d: movie id %q is not an integer", lineNum, fields[1])
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, errors.NotValidf("row %d: rating %q is not a number", lineNum, fields[2])
		}
		dataset.Add(userId, movieId, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "read rating file %s", path)
	}
	log.Logger().Info("load ratings",
		zap.String("path", path),
		zap.Int("count", dataset.Count()))
	return dataset, nil
}
