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

package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rancher/elemental-pkg/pkg/config"
	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// setupLogger configures level, format and outputs from the global flags
func setupLogger(cfg *v1.Config) {
	if viper.GetBool("debug") {
		cfg.Logger.SetLevel(v1.DebugLevel())
	}

	// Set formatter so both file and stdout format are equal
	cfg.Logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableColors:    false,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	var outputs []io.Writer
	if !viper.GetBool("quiet") {
		outputs = append(outputs, os.Stdout)
	}
	if logfile := viper.GetString("logfile"); logfile != "" {
		o, err := cfg.Fs.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fs.ModePerm)
		if err != nil {
			cfg.Logger.Errorf("Could not open %s for logging to file: %s", logfile, err.Error())
		} else {
			outputs = append(outputs, o)
		}
	}
	if len(outputs) == 0 {
		cfg.Logger.SetOutput(io.Discard)
	} else {
		cfg.Logger.SetOutput(io.MultiWriter(outputs...))
	}
}

// loadConfigFiles merges configDir/config.yaml and then every yaml file in
// configDir/config.d in lexical order, later files win
func loadConfigFiles(configDir string) error {
	viper.SetConfigType("yaml")
	mainFile := filepath.Join(configDir, constants.ConfigFile)
	if _, err := os.Stat(mainFile); err == nil {
		viper.SetConfigFile(mainFile)
		if err := viper.MergeInConfig(); err != nil {
			return fmt.Errorf("failed reading %s: %w", mainFile, err)
		}
	}

	extraDir := filepath.Join(configDir, "config.d")
	entries, err := os.ReadDir(extraDir)
	if err != nil {
		return nil
	}
	var extra []string
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			extra = append(extra, filepath.Join(extraDir, e.Name()))
		}
	}
	sort.Strings(extra)
	for _, f := range extra {
		viper.SetConfigFile(f)
		if err := viper.MergeInConfig(); err != nil {
			return fmt.Errorf("failed reading %s: %w", f, err)
		}
	}
	return nil
}

// loadEnvFile exports the variables of configDir/elemental-pkg.env, variables
// already set in the environment are kept
func loadEnvFile(configDir string) error {
	envFile := filepath.Join(configDir, constants.EnvFile)
	if _, err := os.Stat(envFile); err != nil {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed loading %s: %w", envFile, err)
	}
	return nil
}

func bindEnv() {
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, env := range constants.GetRunKeyEnvMap() {
		_ = viper.BindEnv(key, fmt.Sprintf("%s_%s", constants.EnvPrefix, env))
	}
	for key, env := range constants.GetInstallKeyEnvMap() {
		_ = viper.BindEnv("install."+key, fmt.Sprintf("%s_%s", constants.EnvPrefix, env))
	}
	viper.AutomaticEnv()
}

// bindGivenFlags binds the flags explicitly set in the command line so they
// override config files and environment
func bindGivenFlags(flags *pflag.FlagSet) {
	if flags == nil {
		return
	}
	install := constants.GetInstallKeyEnvMap()
	run := constants.GetRunKeyEnvMap()
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if _, ok := install[f.Name]; ok {
			_ = viper.BindPFlag("install."+f.Name, f)
		} else if _, ok := run[f.Name]; ok {
			_ = viper.BindPFlag(f.Name, f)
		}
	})
}

// ReadConfigRun returns the runtime configuration built from defaults, the config
// files in configDir, the environment and the given flags, in increasing order
// of precedence
func ReadConfigRun(configDir string, flags *pflag.FlagSet) (*v1.Config, error) {
	cfg := config.NewConfig(config.WithLogger(v1.NewLogger()))
	setupLogger(cfg)

	if configDir != "" {
		if err := loadEnvFile(configDir); err != nil {
			return cfg, err
		}
		if err := loadConfigFiles(configDir); err != nil {
			return cfg, err
		}
	}
	bindEnv()
	bindGivenFlags(flags)

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		v1.InstallModeHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := viper.Unmarshal(cfg, hooks); err != nil {
		return cfg, fmt.Errorf("failed decoding configuration: %w", err)
	}
	if err := cfg.Sanitize(); err != nil {
		return cfg, err
	}
	cfg.Logger.Debugf("Full config loaded: %s", litter.Sdump(cfg))
	return cfg, nil
}
