/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"os"
	"slices"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"go.uber.org/zap/zapcore"
)

const (
	loggerNameSeparator = "."
	rootLoggerName      = "epid"
)

// Logger provides logging API
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	IsEnabledFor(level zapcore.Level) bool
}

// MustGetLogger returns the logger named epid.<parts joined by dots>.
func MustGetLogger(parts ...string) Logger {
	return flogging.MustGetLogger(loggerName(append([]string{rootLoggerName}, parts...)...))
}

// Named derives a child logger from a logger obtained with MustGetLogger.
func Named(logger Logger, parts ...string) Logger {
	l, ok := logger.(*flogging.FabricLogger)
	if !ok {
		panic("invalid logger")
	}
	return l.Named(loggerName(parts...))
}

// Init configures the global log spec (e.g. "info" or "epid.core=debug:warn")
// and output format. An empty format keeps the flogging default.
func Init(spec, format string) {
	flogging.Init(flogging.Config{
		Format:  format,
		Writer:  os.Stderr,
		LogSpec: spec,
	})
}

func isEmptyString(s string) bool { return len(s) == 0 }

func loggerName(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, isEmptyString), loggerNameSeparator)
}
