/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookclub/bookclub/pkg/server/buildinfo"
	"github.com/bookclub/bookclub/pkg/server/config"
	"github.com/bookclub/bookclub/pkg/server/controllers"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/bookclub/bookclub/pkg/server/mailer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type startFlags struct {
	db                  dbFlags
	configFile          string
	appEnv              string
	port                string
	baseURL             string
	disableRegistration bool
	logLevel            string
}

func newStartCmd() *cobra.Command {
	var f startFlags

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := f.db.params()
			params.ConfigFile = f.configFile
			params.AppEnv = f.appEnv
			params.Port = f.port
			params.BaseURL = f.baseURL
			params.DisableRegistration = f.disableRegistration
			params.LogLevel = f.logLevel

			cfg, err := config.New(params)
			if err != nil {
				return errors.Wrap(err, "loading config")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	f.db.register(cmd)
	cmd.Flags().StringVar(&f.configFile, "config", "", "Path to a YAML configuration file (env: CONFIG_FILE)")
	cmd.Flags().StringVar(&f.appEnv, "appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	cmd.Flags().StringVar(&f.port, "port", "", "Server port (env: PORT, default: 3001)")
	cmd.Flags().StringVar(&f.baseURL, "baseUrl", "", "Full URL to server without trailing slash (env: BASE_URL, default: http://localhost:3001)")
	cmd.Flags().BoolVar(&f.disableRegistration, "disableRegistration", false, "Disable user registration (env: DISABLE_REGISTRATION, default: false)")
	cmd.Flags().StringVar(&f.logLevel, "logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")

	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg, mailer.NewBackend())
	if err != nil {
		return err
	}
	defer closeDB(a.DB)

	maintenance, err := database.StartMaintenance(a.DB, cfg.DBDriver)
	if err != nil {
		return errors.Wrap(err, "starting database maintenance")
	}
	if maintenance != nil {
		defer maintenance.Stop()
	}

	ctl := controllers.New(a)
	rc := controllers.RouteConfig{
		APIRoutes:   controllers.NewAPIRoutes(a, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(a, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithFields(log.Fields{
		"version":   buildinfo.Version,
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
	}).Info("Bookclub server starting")

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
