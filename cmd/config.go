package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gary-zero/hierplan/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName = ".hierplan"
	envPrefix  = "HIERPLAN"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance of Validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	return validate.Struct(config)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; it's fine if it doesn't exist.
	_ = godotenv.Load()

	// Environment variable handling must be set up BEFORE reading the config
	// file so env vars can influence config loading.
	viper.SetEnvPrefix(envPrefix) // e.g., HIERPLAN_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")        // ./.hierplan.yaml
		viper.AddConfigPath(home)       // $HOME/.hierplan.yaml
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	setDefaults()

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("planning.autoPlanningEnabled", true)
	viper.SetDefault("planning.maxRecursionDepth", 3)
	viper.SetDefault("planning.maxSubtasks", 15)
	viper.SetDefault("planning.verificationEnabled", true)
	viper.SetDefault("planning.retryFailedSubtasks", true)

	viper.SetDefault("evaluation.maxHistoryPerSubtask", 20)

	viper.SetDefault("scheduler.depthDelayMinutes", 5)

	viper.SetDefault("data.file", filepath.Join(".hierplan", "plans.json"))
	viper.SetDefault("data.format", "json")
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// configKeys maps recognized short keys to their viper paths. Only these can
// be changed through `config set` and the update-configuration MCP tool.
var configKeys = map[string]string{
	"auto_planning_enabled": "planning.autoPlanningEnabled",
	"max_recursion_depth":   "planning.maxRecursionDepth",
	"max_subtasks":          "planning.maxSubtasks",
	"verification_enabled":  "planning.verificationEnabled",
	"retry_failed_subtasks": "planning.retryFailedSubtasks",
}

// SetConfigValue updates one recognized configuration key, re-validates the
// full configuration, and persists it to the config file.
func SetConfigValue(key, value string) error {
	path, ok := configKeys[key]
	if !ok {
		known := make([]string, 0, len(configKeys))
		for k := range configKeys {
			known = append(known, k)
		}
		return fmt.Errorf("unknown configuration key %q (recognized: %s)", key, strings.Join(known, ", "))
	}

	previous := viper.Get(path)
	viper.Set(path, value)

	var next types.AppConfig
	if err := viper.Unmarshal(&next); err != nil {
		viper.Set(path, previous)
		return fmt.Errorf("apply %s=%s: %w", key, value, err)
	}
	if err := validateAppConfig(&next); err != nil {
		viper.Set(path, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	GlobalAppConfig = next

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = configName + ".yaml"
		viper.SetConfigFile(configFile)
	}
	return viper.WriteConfig()
}
