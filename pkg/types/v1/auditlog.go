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
	"fmt"
	"strings"

	"github.com/rancher/elemental-pkg/pkg/constants"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "Debug"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return constants.ErrorMarker
	default:
		return "Info"
	}
}

// LogLine is a single audit log entry
type LogLine struct {
	Severity Severity
	Source   string
	Message  string
}

func (l LogLine) String() string {
	if l.Source == "" {
		return fmt.Sprintf("%s: %s", l.Severity, l.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", l.Severity, l.Source, l.Message)
}

// AuditLog is the append only record returned by every install and uninstall
// operation. Lines are mirrored to the logger as they are appended.
type AuditLog struct {
	lines  []LogLine
	logger Logger
}

func NewAuditLog(logger Logger) *AuditLog {
	if logger == nil {
		logger = NewNullLogger()
	}
	return &AuditLog{logger: logger}
}

func (a *AuditLog) append(s Severity, source, format string, args ...interface{}) {
	l := LogLine{Severity: s, Source: source, Message: fmt.Sprintf(format, args...)}
	a.lines = append(a.lines, l)
	switch s {
	case SeverityDebug:
		a.logger.Debug(l.String())
	case SeverityWarning:
		a.logger.Warn(l.String())
	case SeverityError:
		a.logger.Error(l.String())
	default:
		a.logger.Info(l.String())
	}
}

func (a *AuditLog) Debugf(source, format string, args ...interface{}) {
	a.append(SeverityDebug, source, format, args...)
}

func (a *AuditLog) Infof(source, format string, args ...interface{}) {
	a.append(SeverityInfo, source, format, args...)
}

func (a *AuditLog) Warnf(source, format string, args ...interface{}) {
	a.append(SeverityWarning, source, format, args...)
}

func (a *AuditLog) Errorf(source, format string, args ...interface{}) {
	a.append(SeverityError, source, format, args...)
}

// Merge appends the lines of other without mirroring them to the logger again
func (a *AuditLog) Merge(other *AuditLog) {
	if other == nil {
		return
	}
	a.lines = append(a.lines, other.lines...)
}

func (a *AuditLog) Entries() []LogLine {
	out := make([]LogLine, len(a.lines))
	copy(out, a.lines)
	return out
}

// Lines returns the rendered audit log
func (a *AuditLog) Lines() []string {
	out := make([]string, 0, len(a.lines))
	for _, l := range a.lines {
		out = append(out, l.String())
	}
	return out
}

func (a *AuditLog) Len() int {
	return len(a.lines)
}

// ErrorLines returns the rendered lines starting with the error marker
func (a *AuditLog) ErrorLines() []string {
	var out []string
	for _, l := range a.Lines() {
		if strings.HasPrefix(l, constants.ErrorMarker) {
			out = append(out, l)
		}
	}
	return out
}

// HasErrors reports whether any line denotes a failed outcome
func (a *AuditLog) HasErrors() bool {
	return len(a.ErrorLines()) > 0
}

func (a *AuditLog) String() string {
	return strings.Join(a.Lines(), "\n")
}
