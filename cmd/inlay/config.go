package main

import (
	"errors"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/inlay"
)

// loadConfig loads --config, or the nearest config above dir, or the defaults. The
// returned path is empty when no file was found.
func loadConfig(cmd *cli.Command, dir string) (*inlay.Config, string, error) {
	if path := cmd.String("config"); path != "" {
		cfg, err := inlay.LoadConfigFile(path)

		return cfg, path, err
	}

	path, err := inlay.FindConfig(dir)
	if errors.Is(err, inlay.ErrConfigNotFound) {
		return inlay.DefaultConfig(), "", nil
	}

	if err != nil {
		return nil, "", err
	}

	cfg, err := inlay.LoadConfigFile(path)

	return cfg, path, err
}

// newLogger builds a development logger writing to stderr; stdout carries output.
func newLogger(cmd *cli.Command, cfg *inlay.Config) (*zap.Logger, error) {
	name := cfg.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		name = flag
	}

	level := zapcore.InfoLevel
	if name != "" {
		var err error

		level, err = zapcore.ParseLevel(name)
		if err != nil {
			return nil, err
		}
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)

	return config.Build()
}
