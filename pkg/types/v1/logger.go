/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package v1

import (
	"bytes"
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the installer. Audit logs mirror
// their lines into it, so it is also where the installer output ends up.
type Logger interface {
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Error(...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	SetLevel(level log.Level)
	GetLevel() log.Level
	SetOutput(writer io.Writer)
	SetFormatter(formatter log.Formatter)
}

func DebugLevel() log.Level {
	return log.DebugLevel
}

func IsDebugLevel(l Logger) bool {
	return l.GetLevel() >= log.DebugLevel
}

func NewLogger() Logger {
	return log.New()
}

// NewNullLogger returns a logger discarding everything
func NewNullLogger() Logger {
	return NewWriterLogger(io.Discard)
}

// NewBufferLogger returns a logger writing into b, mostly used in tests
func NewBufferLogger(b *bytes.Buffer) Logger {
	return NewWriterLogger(b)
}

// NewWriterLogger returns a logger writing plain text lines into w
func NewWriterLogger(w io.Writer) Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return logger
}
