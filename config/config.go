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

package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of a sorrel run.
type Config struct {
	Data DataConfig `mapstructure:"data"`
	ALS  ALSConfig  `mapstructure:"als"`
}

// DataConfig describes the input files and problem dimensions.
type DataConfig struct {
	// MovieFactors is the path of the precomputed movie factor table.
	MovieFactors string `mapstructure:"movie_factors" validate:"required"`
	// Ratings is the path of the rating stream.
	Ratings string `mapstructure:"ratings" validate:"required"`
	// Separator is the field separator of both files.
	Separator string `mapstructure:"separator"`
	// HasHeader skips the first line of the rating stream.
	HasHeader bool `mapstructure:"has_header"`
	// NumUsers is the number of users in the problem.
	NumUsers int `mapstructure:"num_users" validate:"min=1"`
	// NumMovies is the number of movies in the problem.
	NumMovies int `mapstructure:"num_movies" validate:"min=1"`
	// HeldOutPerUser is the number of ratings reserved per user for the
	// evaluation set.
	HeldOutPerUser int `mapstructure:"held_out_per_user" validate:"min=0"`
}

// ALSConfig holds the hyper-parameters of the online ALS model.
type ALSConfig struct {
	// Lambda is the ridge regularization coefficient, strictly positive.
	Lambda float64 `mapstructure:"lambda" validate:"gt=0"`
	// NumFactors is the number of latent factors.
	NumFactors int `mapstructure:"num_factors" validate:"min=1"`
	// InitStdDev is the standard deviation of initial latent vectors.
	InitStdDev float64 `mapstructure:"init_std_dev" validate:"min=0"`
	// RandomState seeds latent vector initialization and splitting.
	RandomState int64 `mapstructure:"random_state"`
}

// GetDefaultConfig returns the default configuration. Problem dimensions
// have no sensible default and must be set explicitly.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Separator:      ",",
			HeldOutPerUser: 5,
		},
		ALS: ALSConfig{
			Lambda:     0.1,
			NumFactors: 20,
			InitStdDev: 0.1,
		},
	}
}

// Validate checks the configuration against its constraints.
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

// LoadConfig loads and validates the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Annotatef(err, "read config file %s", path)
	}
	config := GetDefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return config, nil
}
