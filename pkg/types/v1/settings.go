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
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/rancher/elemental-pkg/pkg/constants"
)

// InstallMode is the resolution policy of a planning run
type InstallMode int

const (
	// SideBySide allows several versions of the same package at once
	SideBySide InstallMode = iota
	// HighestVersionOnly keeps at most one, the newest, version per package name
	HighestVersionOnly
)

func (m InstallMode) String() string {
	switch m {
	case HighestVersionOnly:
		return constants.HighestVersionOnly
	default:
		return constants.SideBySide
	}
}

// ParseInstallMode parses the textual representation of an InstallMode
func ParseInstallMode(s string) (InstallMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.SideBySide, "sidebyside", "":
		return SideBySide, nil
	case constants.HighestVersionOnly, "highestversiononly", "highest":
		return HighestVersionOnly, nil
	}
	return SideBySide, fmt.Errorf("invalid install mode '%s', valid modes are: %s, %s", s, constants.SideBySide, constants.HighestVersionOnly)
}

// InstallModeHookFunc is a mapstructure decode hook to read InstallMode values from strings
func InstallModeHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(SideBySide) || f.Kind() != reflect.String {
			return data, nil
		}
		return ParseInstallMode(data.(string))
	}
}

// InstallSettings are the policy flags of a single Install call
type InstallSettings struct {
	Mode                   InstallMode `yaml:"mode,omitempty" mapstructure:"mode"`
	CleanInstall           bool        `yaml:"clean,omitempty" mapstructure:"clean"`
	EnableUpdates          bool        `yaml:"update,omitempty" mapstructure:"update"`
	RemoveOrphans          bool        `yaml:"remove-orphans,omitempty" mapstructure:"remove-orphans"`
	UpdateBeforeInstalling bool        `yaml:"refresh,omitempty" mapstructure:"refresh"`
}

// NewInstallSettings returns the default settings: side by side, no clean install,
// no updates, no orphan removal
func NewInstallSettings() InstallSettings {
	return InstallSettings{Mode: SideBySide}
}

func (s InstallSettings) String() string {
	return fmt.Sprintf("mode=%s clean=%t update=%t remove-orphans=%t refresh=%t",
		s.Mode, s.CleanInstall, s.EnableUpdates, s.RemoveOrphans, s.UpdateBeforeInstalling)
}
