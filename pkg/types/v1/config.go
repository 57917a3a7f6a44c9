/*
Copyright © 2021 - 2025 SUSE LLC

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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rancher/elemental-pkg/pkg/constants"
)

// Config is the runtime configuration shared by catalog, executor and installer
type Config struct {
	Logger         Logger          `yaml:"-"`
	Fs             FS              `yaml:"-"`
	Client         HTTPClient      `yaml:"-"`
	InstallRoot    string          `yaml:"install-root,omitempty" mapstructure:"install-root"`
	Catalog        string          `yaml:"catalog,omitempty" mapstructure:"catalog"`
	ConfigFilename string          `yaml:"config-filename,omitempty" mapstructure:"config-filename"`
	RemoveDelay    time.Duration   `yaml:"remove-delay,omitempty" mapstructure:"remove-delay"`
	OrphanPasses   int             `yaml:"orphan-passes,omitempty" mapstructure:"orphan-passes"`
	Mirror         string          `yaml:"mirror,omitempty" mapstructure:"mirror"`
	Install        InstallSettings `yaml:"install,omitempty" mapstructure:"install"`
}

// Sanitize checks the consistency of the configuration
func (c *Config) Sanitize() error {
	if c.Fs == nil || c.Logger == nil {
		return errors.New("config requires a filesystem and a logger")
	}
	if strings.TrimSpace(c.InstallRoot) == "" {
		return errors.New("install root can't be empty")
	}
	if strings.TrimSpace(c.ConfigFilename) == "" {
		return errors.New("package config filename can't be empty")
	}
	if c.OrphanPasses < 1 {
		return errors.New("orphan passes must be a positive number")
	}
	switch c.Mirror {
	case "":
		c.Mirror = constants.MirrorBuiltin
	case constants.MirrorBuiltin, constants.MirrorRsync:
	default:
		return fmt.Errorf("invalid mirror backend '%s'", c.Mirror)
	}
	if c.RemoveDelay < 0 {
		c.RemoveDelay = 0
	}
	return nil
}
