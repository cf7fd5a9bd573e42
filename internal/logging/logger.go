// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package logging builds the daemon's zerolog logger: a console writer
// always, plus an optional rotating file sink when LOG_PATH is set.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process-wide logger for the given level ("TRACE", "DEBUG",
// "INFO", "WARN", "ERROR") and optional log directory. When logPath is empty, only
// the console writer is used.
func New(level, logPath string) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprintf("%s", i))
			switch lvl {
			case "DEBUG":
				return "[DBG]"
			case "INFO":
				return "[INF]"
			case "WARN":
				return "[WRN]"
			case "ERROR":
				return "[ERR]"
			case "FATAL":
				return "[FTL]"
			default:
				if len(lvl) >= 3 {
					return fmt.Sprintf("[%s]", lvl[:3])
				}
				return fmt.Sprintf("[%s]", lvl)
			}
		},
	}

	var writer zerolog.LevelWriter
	if logPath == "" {
		writer = zerolog.MultiLevelWriter(consoleWriter)
	} else {
		rotating := &lumberjack.Logger{
			Filename: logPath + "/torrent-cleaner.log",
			MaxSize:  10,
			MaxAge:   15,
			Compress: true,
		}
		fileWriter := zerolog.ConsoleWriter{
			Out:        rotating,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    true,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
			},
		}
		writer = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(parseLevel(level))
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
