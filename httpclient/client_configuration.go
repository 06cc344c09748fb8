// httpclient/client_configuration.go
// Description: This file contains functions to load configuration values from a JSON or YAML file or environment variables.
package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvAppID                    = "LARK_APP_ID"
	EnvAppSecret                = "LARK_APP_SECRET"
	EnvBaseURL                  = "LARK_BASE_URL"
	EnvAppType                  = "LARK_APP_TYPE"
	EnvEnableTokenCache         = "LARK_ENABLE_TOKEN_CACHE"
	EnvLogLevel                 = "LARK_LOG_LEVEL"
	EnvLogOutputFormat          = "LARK_LOG_OUTPUT_FORMAT"
	EnvLogConsoleSeparator      = "LARK_LOG_CONSOLE_SEPARATOR"
	EnvHideSensitiveData        = "LARK_HIDE_SENSITIVE_DATA"
	EnvMaxRetryAttempts         = "LARK_MAX_RETRY_ATTEMPTS"
	EnvMaxConcurrentRequests    = "LARK_MAX_CONCURRENT_REQUESTS"
	EnvCustomTimeout            = "LARK_CUSTOM_TIMEOUT"
	EnvTokenRefreshBufferPeriod = "LARK_TOKEN_REFRESH_BUFFER_PERIOD"
	EnvTokenFetchTimeout        = "LARK_TOKEN_FETCH_TIMEOUT"
	EnvMaxRetryDelay            = "LARK_MAX_RETRY_DELAY"
	EnvMaxRedirects             = "LARK_MAX_REDIRECTS"
	EnvProxyURL                 = "LARK_PROXY_URL"
)

// LoadConfigFromFile loads http client configuration settings from a JSON or
// YAML file, chosen by extension. Missing fields get their defaults.
func LoadConfigFromFile(path string) (*ClientConfig, error) {
	cleanPath, err := validateFilePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	var config ClientConfig
	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("could not unmarshal JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("could not unmarshal YAML: %w", err)
		}
	}

	SetDefaultValuesClientConfig(&config)
	return &config, nil
}

// LoadConfigFromEnv loads http client configuration settings from LARK_*
// environment variables. The given dotenv files are loaded first; with none
// given, a .env file in the working directory is loaded when present.
// Variables already set in the environment win over dotenv values.
func LoadConfigFromEnv(envFiles ...string) (*ClientConfig, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("could not load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	config := &ClientConfig{}

	// Credential
	config.AppID = getEnvOrDefault(EnvAppID, "")
	config.AppSecret = getEnvOrDefault(EnvAppSecret, "")
	config.BaseURL = getEnvOrDefault(EnvBaseURL, authenticationhandler.DefaultBaseURL)
	config.AppType = authenticationhandler.AppType(getEnvOrDefault(EnvAppType, string(authenticationhandler.AppTypeSelfBuild)))
	config.EnableTokenCache = Bool(parseBool(getEnvOrDefault(EnvEnableTokenCache, "true"), true))

	// Log
	config.LogLevel = getEnvOrDefault(EnvLogLevel, DefaultLogLevelString)
	config.LogOutputFormat = getEnvOrDefault(EnvLogOutputFormat, DefaultLogOutputFormatString)
	config.LogConsoleSeparator = getEnvOrDefault(EnvLogConsoleSeparator, DefaultLogConsoleSeparator)
	config.HideSensitiveData = parseBool(getEnvOrDefault(EnvHideSensitiveData, ""), DefaultHideSensitiveData)

	// Misc
	config.MaxRetryAttempts = parseInt(getEnvOrDefault(EnvMaxRetryAttempts, ""), DefaultMaxRetryAttempts)
	config.MaxConcurrentRequests = parseInt(getEnvOrDefault(EnvMaxConcurrentRequests, ""), DefaultMaxConcurrentRequests)
	config.CustomTimeout = parseDuration(getEnvOrDefault(EnvCustomTimeout, ""), DefaultCustomTimeout)
	config.TokenRefreshBufferPeriod = Duration(parseDuration(getEnvOrDefault(EnvTokenRefreshBufferPeriod, ""), DefaultTokenRefreshBufferPeriod))
	config.TokenFetchTimeout = parseDuration(getEnvOrDefault(EnvTokenFetchTimeout, ""), DefaultTokenFetchTimeout)
	config.MaxRetryDelay = parseDuration(getEnvOrDefault(EnvMaxRetryDelay, ""), DefaultMaxRetryDelay)
	config.MaxRedirects = Int(parseInt(getEnvOrDefault(EnvMaxRedirects, ""), DefaultMaxRedirects))

	// Proxy
	config.ProxyURL = getEnvOrDefault(EnvProxyURL, "")

	return config, nil
}

// getEnvOrDefault returns the environment variable or defaultValue when unset.
func getEnvOrDefault(envKey string, defaultValue string) string {
	if value, exists := os.LookupEnv(envKey); exists {
		return value
	}
	return defaultValue
}

// parseBool parses value, returning defaultVal when it is not a boolean.
func parseBool(value string, defaultVal bool) bool {
	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultVal
	}
	return result
}

// parseInt parses value, returning defaultVal when it is not an integer.
func parseInt(value string, defaultVal int) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal
	}
	return result
}

// parseDuration parses value, returning defaultVal when it is not a duration.
func parseDuration(value string, defaultVal time.Duration) time.Duration {
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultVal
	}
	return result
}

var configFileExtensions = []string{".json", ".yaml", ".yml"}

// validateFilePath cleans path and checks it names a readable config file.
func validateFilePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the absolute path of the configuration file: %s, error: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	for _, allowed := range configFileExtensions {
		if ext == allowed {
			return absPath, nil
		}
	}
	return "", fmt.Errorf("invalid file extension for configuration file: %s, expected one of %s", path, strings.Join(configFileExtensions, ", "))
}
