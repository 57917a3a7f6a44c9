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

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rancher/elemental-pkg/pkg/constants"
)

// addInstallSettingsFlags adds the flags mapped to the install settings
func addInstallSettingsFlags(cmd *cobra.Command) {
	mode := newEnumFlag([]string{constants.SideBySide, constants.HighestVersionOnly}, constants.SideBySide)
	cmd.Flags().Var(mode, "mode", fmt.Sprintf("Resolution mode, one of: %s", strings.Join(mode.Allowed, ", ")))
	cmd.Flags().Bool("clean", false, "Reinstall packages already installed from scratch")
	cmd.Flags().Bool("update", false, "Mirror packages already installed against their catalog payload")
	cmd.Flags().Bool("refresh", false, "Refresh catalog archives from their source before installing")
	addRemoveOrphansFlag(cmd)
	addMirrorFlag(cmd)
}

// addRemoveOrphansFlag adds the flag to sweep orphaned dependency packages
func addRemoveOrphansFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("remove-orphans", false, "Remove dependency packages no longer required by any other package")
}

// addMirrorFlag adds the flag selecting the mirror backend used on updates
func addMirrorFlag(cmd *cobra.Command) {
	mirror := newEnumFlag([]string{constants.MirrorBuiltin, constants.MirrorRsync}, constants.MirrorBuiltin)
	cmd.Flags().Var(mirror, "mirror", fmt.Sprintf("Mirror backend used on updates, one of: %s", strings.Join(mirror.Allowed, ", ")))
}

type enum struct {
	Allowed []string
	Value   string
}

// newEnum give a list of allowed flag parameters, where the second argument is the default
func newEnumFlag(allowed []string, d string) *enum {
	return &enum{
		Allowed: allowed,
		Value:   d,
	}
}

func (a enum) String() string {
	return a.Value
}

func (a *enum) Set(p string) error {
	isIncluded := func(opts []string, val string) bool {
		for _, opt := range opts {
			if val == opt {
				return true
			}
		}
		return false
	}
	if !isIncluded(a.Allowed, p) {
		return fmt.Errorf("'%s' is not included in: %s", p, strings.Join(a.Allowed, ","))
	}
	a.Value = p
	return nil
}

func (a *enum) Type() string {
	return "string"
}
