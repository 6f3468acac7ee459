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
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRatings(t *testing.T) {
	path := writeTempFile(t, "userId,movieId,rating,timestamp\n1,2,5.0,964982703\n2,3,3.5,964981247\n")
	data, err := LoadRatings(path, ",", true)
	assert.NoError(t, err)
	assert.Equal(t, 2, data.Count())
	assert.Equal(t, Rating{UserId: 1, MovieId: 2, Value: 5.0}, data.Ratings[0])
	assert.Equal(t, Rating{UserId: 2, MovieId: 3, Value: 3.5}, data.Ratings[1])
}

func TestLoadRatings_NoHeader(t *testing.T) {
	path := writeTempFile(t, "1\t2\t5.0\n")
	data, err := LoadRatings(path, "\t", false)
	assert.NoError(t, err)
	assert.Equal(t, 1, data.Count())
}

func TestLoadRatings_Malformed(t *testing.T) {
	path := writeTempFile(t, "1,2\n")
	_, err := LoadRatings(path, ",", false)
	assert.True(t, errors.IsNotValid(err))

	path = writeTempFile(t, "1,two,5.0\n")
	_, err = LoadRatings(path, ",", false)
	assert.True(t, errors.IsNotValid(err))

	path = writeTempFile(t, "1,2,five\n")
	_, err = LoadRatings(path, ",", false)
	assert.True(t, errors.IsNotValid(err))
}

func TestLoadRatings_Unreadable(t *testing.T) {
	_, err := LoadRatings(filepath.Join(t.TempDir(), "missing.csv"), ",", false)
	assert.Error(t, err)
}

func TestDataset_GroupByUser(t *testing.T) {
	data := new(Dataset)
	data.Add(1, 1, 4)
	data.Add(2, 1, 3)
	data.Add(1, 2, 5)
	grouped := data.GroupByUser()
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped[1], 2)
	assert.Len(t, grouped[2], 1)
	assert.Equal(t, 4.0, grouped[1][0].Value)
	assert.Equal(t, 5.0, grouped[1][1].Value)
}
