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

package main

import (
	"math"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/sorrel-io/sorrel/base/log"
	"github.com/sorrel-io/sorrel/config"
	"github.com/sorrel-io/sorrel/dataset"
	"github.com/sorrel-io/sorrel/model"
	"github.com/sorrel-io/sorrel/model/als"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "sorrel",
	Short: "Online ALS rating predictor over a fixed movie factor matrix.",
	Run: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}

		// load inputs
		movieFactor, err := als.LoadMovieFactors(conf.Data.MovieFactors, conf.Data.Separator)
		if err != nil {
			log.Logger().Fatal("failed to load movie factors", zap.Error(err))
		}
		ratings, err := dataset.LoadRatings(conf.Data.Ratings, conf.Data.Separator, conf.Data.HasHeader)
		if err != nil {
			log.Logger().Fatal("failed to load ratings", zap.Error(err))
		}

		// reserve the held-out evaluation set
		trainSet, truth, err := dataset.Split(ratings,
			conf.Data.NumUsers, conf.Data.NumMovies, conf.Data.HeldOutPerUser, conf.ALS.RandomState)
		if err != nil {
			log.Logger().Fatal("failed to split ratings", zap.Error(err))
		}
		log.Logger().Info("split ratings",
			zap.Int("train_set_size", trainSet.Count()),
			zap.Int("held_out_per_user", conf.Data.HeldOutPerUser))

		// create the model
		m, err := als.NewALS(movieFactor, model.Params{
			model.Reg:         conf.ALS.Lambda,
			model.NFactors:    conf.ALS.NumFactors,
			model.InitStdDev:  conf.ALS.InitStdDev,
			model.RandomState: conf.ALS.RandomState,
		})
		if err != nil {
			log.Logger().Fatal("failed to create als model", zap.Error(err))
		}

		// feed the observation stream
		bar := progressbar.Default(int64(trainSet.Count()), "observe")
		for _, r := range trainSet.Ratings {
			if err := m.Observe(r.UserId, r.MovieId, r.Value); err != nil {
				log.Logger().Fatal("failed to observe rating",
					zap.Int("user_id", r.UserId),
					zap.Int("movie_id", r.MovieId),
					zap.Error(err))
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		// evaluate on the held-out set
		mse, err := als.MSE(truth, m.PredictMatrix(conf.Data.NumUsers))
		if err != nil {
			log.Logger().Fatal("failed to evaluate model", zap.Error(err))
		}
		log.Logger().Info("evaluate model",
			zap.Int("num_users", m.Store().CountUsers()),
			zap.Float64("mse", mse),
			zap.Float64("rmse", math.Sqrt(mse)))
	},
}

func init() {
	rootCommand.PersistentFlags().String("config", "config.toml", "configuration file path")
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	log.AddFlags(rootCommand.PersistentFlags())
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
