package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func InitLogger(config *logConfig) error {
	level, err := parseLevel(config.Level)
	if err != nil {
		return err
	}

	// rebuilt from scratch so repeated calls do not stack context fields
	log.Logger = newLogger(config, os.Stderr)
	zerolog.SetGlobalLevel(level)

	return nil
}

func newLogger(config *logConfig, stderr io.Writer) zerolog.Logger {
	// default is json
	logWriter := stderr
	if config.LogFormat == "text" {
		noColor := true
		if f, ok := stderr.(*os.File); ok {
			noColor = !isatty.IsTerminal(f.Fd())
		}
		logWriter = zerolog.ConsoleWriter{
			Out:     stderr,
			NoColor: noColor,
		}
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, //days
				},
			})
	}

	ctx := zerolog.New(logWriter).With().Timestamp()
	if config.WithCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(level)
}
