// Daystreak Core
// Copyright (c) 2026 The Daystreak Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Daystreak Core.
//
// Daystreak Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Daystreak Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Daystreak Core.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/helpers"
	"github.com/DaystreakProject/daystreak-core/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "also log to the console")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	if *configPath != "" {
		if err := os.Setenv(config.CfgEnv, *configPath); err != nil {
			return fmt.Errorf("failed to set config path: %w", err)
		}
	}

	var extraWriters []io.Writer
	if *verbose {
		extraWriters = append(extraWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(helpers.DataDir(), extraWriters); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc, err := service.New(cfg, helpers.DataDir(), nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	log.Info().Str("config", cfg.Path()).Msg("configuration loaded")

	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("service exited with error: %w", err)
	}
	return nil
}
