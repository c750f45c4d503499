// Copyright 2025 VidSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"                   // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"                  // The file extension for configuration files.
	ConfigSeparator     = "."                      // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "VIDSENSE_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "VIDSENSE_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	EnvMongoURI         = "MONGO_URI"              // Optional override for the MongoDB connection string.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the layered TOML files selected by the
// VIDSENSE_CONFIG_PREFIX and VIDSENSE_RUNTIME environment variables. The base
// file is decoded first, then the runtime-specific file on top of it, so the
// runtime file only needs to carry the values it overrides. A MONGO_URI
// environment variable, when set, takes precedence over both files.
func LoadConfig(baseConfig *Config) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}

	if uri := os.Getenv(EnvMongoURI); uri != "" {
		baseConfig.Mongo.URI = uri
	}
}
