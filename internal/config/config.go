// Package config holds the zapctl profile: where the gateway lives and how
// to authenticate against it. Values come from a YAML file (default
// $HOME/.zapctl.yaml), overridable per key by ZAPCTL_* environment
// variables and per invocation by flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyBaseURL = "base_url"
	KeyAPIKey  = "api_key"
	KeyToken   = "token"
	KeySession = "session"
	KeyOutput  = "output"

	defaultBaseURL = "http://localhost:7001"
	defaultOutput  = "table"

	fileName = ".zapctl"
)

// InitConfig reads the config file and matching ZAPCTL_* env variables.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(fileName)
	}

	viper.SetEnvPrefix("ZAPCTL")
	viper.AutomaticEnv()

	viper.SetDefault(KeyBaseURL, defaultBaseURL)
	viper.SetDefault(KeyOutput, defaultOutput)

	// A missing file is fine; defaults, env and flags still apply.
	_ = viper.ReadInConfig()
}

func BaseURL() string { return viper.GetString(KeyBaseURL) }
func APIKey() string  { return viper.GetString(KeyAPIKey) }
func Token() string   { return viper.GetString(KeyToken) }
func Session() string { return viper.GetString(KeySession) }
func Output() string  { return viper.GetString(KeyOutput) }

// Keys lists the profile keys `zapctl config` works with.
func Keys() []string {
	keys := []string{KeyBaseURL, KeyAPIKey, KeyToken, KeySession, KeyOutput}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is one of the supported profile keys.
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the effective value for a profile key.
func Get(key string) string {
	return viper.GetString(key)
}

// Set stores a value and persists the config file, creating it when absent.
func Set(key, value string) error {
	viper.Set(key, value)

	if err := viper.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viper.SafeWriteConfig()
		}
		home, herr := os.UserHomeDir()
		if herr != nil {
			return err
		}
		return viper.WriteConfigAs(filepath.Join(home, fileName+".yaml"))
	}
	return nil
}

// Init writes a starter profile carrying the defaults, refusing to clobber
// an existing file. It reports the file path and whether a new file was
// written.
func Init() (string, bool, error) {
	if err := viper.SafeWriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileAlreadyExistsError); ok {
			return Path(), false, nil
		}
		return Path(), false, err
	}
	return Path(), true, nil
}

// Path returns the config file in use, or the default location when none
// has been read yet.
func Path() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fileName + ".yaml"
	}
	return filepath.Join(home, fileName+".yaml")
}

// Redact masks secret-ish values for display.
func Redact(key, value string) string {
	if value == "" {
		return ""
	}
	switch key {
	case KeyAPIKey, KeyToken:
		if len(value) <= 8 {
			return strings.Repeat("*", len(value))
		}
		return value[:4] + "..." + value[len(value)-4:]
	default:
		return value
	}
}
