// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrIncompleteConfig is returned by Validate when the database connection
// cannot be established from the loaded settings.
var ErrIncompleteConfig = errors.New("incomplete database configuration")

// Supported DB_DRIVER values.
const (
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds connection, pool and query limits for the backing store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ServiceName string `yaml:"service_name"`
	SID         string `yaml:"sid"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	SSLMode     string `yaml:"sslmode"`

	// PasswordSecretARN, when set, names an AWS Secrets Manager secret holding
	// "username"/"password" keys that override the static credentials.
	PasswordSecretARN string `yaml:"password_secret_arn"`
	AWSRegion         string `yaml:"aws_region"`

	LogSchema  string `yaml:"log_schema"`
	PlanSchema string `yaml:"plan_schema"`

	PoolMin           int           `yaml:"pool_min"`
	PoolMax           int           `yaml:"pool_max"`
	PoolIncrement     int           `yaml:"pool_increment"`
	AcquireTimeout    time.Duration `yaml:"acquire_timeout"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	QueryTimeout      time.Duration `yaml:"query_timeout"`
	MaxQueryResults   int           `yaml:"max_query_results"`
	FanoutConcurrency int           `yaml:"fanout_concurrency"`
}

// APIConfig holds the HTTP boundary settings.
type APIConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Title             string        `yaml:"title"`
	Version           string        `yaml:"version"`
	Environment       string        `yaml:"environment"`
	LogLevel          string        `yaml:"log_level"`
	APIKey            string        `yaml:"api_key"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	RedisURL          string        `yaml:"redis_url"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Config is the full service configuration, read once at startup.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:            DriverOracle,
			Port:              1521,
			SSLMode:           "disable",
			LogSchema:         "logs",
			PoolMin:           2,
			PoolMax:           20,
			PoolIncrement:     2,
			AcquireTimeout:    30 * time.Second,
			ConnectionTimeout: 30 * time.Second,
			QueryTimeout:      300 * time.Second,
			MaxQueryResults:   5000,
			FanoutConcurrency: 4,
		},
		API: APIConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			Title:             "EOC Database API",
			Version:           "1.0.0",
			Environment:       "development",
			LogLevel:          "INFO",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Hour,
			ShutdownTimeout:   15 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file in the working directory and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// .env never overrides variables that are already exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	db := &c.Database
	db.Driver = strings.ToLower(getEnvOrDefault("DB_DRIVER", db.Driver))
	db.Host = getEnvOrDefault("ORACLE_HOST", db.Host)
	db.ServiceName = getEnvOrDefault("ORACLE_SERVICE_NAME", db.ServiceName)
	db.SID = getEnvOrDefault("ORACLE_SID", db.SID)
	db.Username = getEnvOrDefault("ORACLE_USERNAME", db.Username)
	db.Password = getEnvOrDefault("ORACLE_PASSWORD", db.Password)
	db.SSLMode = getEnvOrDefault("DB_SSLMODE", db.SSLMode)
	db.PasswordSecretARN = getEnvOrDefault("ORACLE_PASSWORD_SECRET_ARN", db.PasswordSecretARN)
	db.AWSRegion = getEnvOrDefault("AWS_REGION", db.AWSRegion)
	db.LogSchema = getEnvOrDefault("ORACLE_LOG_SCHEMA", db.LogSchema)
	db.PlanSchema = getEnvOrDefault("ORACLE_PLAN_SCHEMA", db.PlanSchema)
	// Plans and execution history share the log schema unless split out.
	if db.PlanSchema == "" {
		db.PlanSchema = db.LogSchema
	}

	api := &c.API
	api.Host = getEnvOrDefault("API_HOST", api.Host)
	api.Title = getEnvOrDefault("API_TITLE", api.Title)
	api.Version = getEnvOrDefault("API_VERSION", api.Version)
	api.Environment = getEnvOrDefault("ENVIRONMENT", api.Environment)
	api.LogLevel = getEnvOrDefault("LOG_LEVEL", api.LogLevel)
	api.APIKey = getEnvOrDefault("API_KEY", api.APIKey)
	api.RedisURL = getEnvOrDefault("REDIS_URL", api.RedisURL)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		api.CORSOrigins = splitList(origins)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ORACLE_PORT", &db.Port},
		{"ORACLE_POOL_MIN", &db.PoolMin},
		{"ORACLE_POOL_MAX", &db.PoolMax},
		{"ORACLE_POOL_INCREMENT", &db.PoolIncrement},
		{"MAX_QUERY_RESULTS", &db.MaxQueryResults},
		{"FANOUT_CONCURRENCY", &db.FanoutConcurrency},
		{"API_PORT", &api.Port},
		{"RATE_LIMIT_REQUESTS", &api.RateLimitRequests},
	}
	for _, v := range ints {
		if err := getEnvInt(v.key, v.dst); err != nil {
			return err
		}
	}

	// Plain integers are seconds, matching the original variable contract.
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_ACQUIRE_TIMEOUT", &db.AcquireTimeout},
		{"DB_CONNECTION_TIMEOUT", &db.ConnectionTimeout},
		{"DB_QUERY_TIMEOUT", &db.QueryTimeout},
		{"RATE_LIMIT_WINDOW", &api.RateLimitWindow},
		{"SHUTDOWN_TIMEOUT", &api.ShutdownTimeout},
	}
	for _, v := range durations {
		if err := getEnvDuration(v.key, v.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that a connection can be attempted. Every problem found is
// reported, wrapped around ErrIncompleteConfig.
func (c *DatabaseConfig) Validate() error {
	var problems []string

	switch c.Driver {
	case DriverOracle, DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.Driver))
	}
	if strings.TrimSpace(c.Host) == "" {
		problems = append(problems, "ORACLE_HOST is required")
	}
	if c.Username == "" && c.PasswordSecretARN == "" {
		problems = append(problems, "ORACLE_USERNAME is required")
	}
	if c.Password == "" && c.PasswordSecretARN == "" {
		problems = append(problems, "ORACLE_PASSWORD is required")
	}

	hasService := strings.TrimSpace(c.ServiceName) != ""
	hasSID := strings.TrimSpace(c.SID) != ""
	switch {
	case hasService && hasSID:
		problems = append(problems, "set exactly one of ORACLE_SERVICE_NAME or ORACLE_SID, not both")
	case !hasService && !hasSID:
		problems = append(problems, "either ORACLE_SERVICE_NAME or ORACLE_SID must be provided")
	case hasSID && c.Driver == DriverPostgres:
		problems = append(problems, "ORACLE_SID is not supported by the postgres driver, use ORACLE_SERVICE_NAME as the database name")
	}

	if c.PoolMax < 1 {
		problems = append(problems, "ORACLE_POOL_MAX must be at least 1")
	}
	if c.PoolMin < 0 || c.PoolMin > c.PoolMax {
		problems = append(problems, "ORACLE_POOL_MIN must be between 0 and ORACLE_POOL_MAX")
	}
	if c.MaxQueryResults < 1 {
		problems = append(problems, "MAX_QUERY_RESULTS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ConnectionType reports which Oracle connection identifier is in use.
func (c *DatabaseConfig) ConnectionType() string {
	if c.SID != "" {
		return "SID"
	}
	return "Service Name"
}

// IsReady reports whether the database settings validate.
func (c *Config) IsReady() bool {
	return c.Database.Validate() == nil
}

// DatabaseInfo returns connection details safe to expose on health endpoints.
// Credentials are never included.
func (c *Config) DatabaseInfo() map[string]interface{} {
	db := c.Database
	return map[string]interface{}{
		"driver":          db.Driver,
		"host":            db.Host,
		"port":            db.Port,
		"service_name":    db.ServiceName,
		"sid":             db.SID,
		"connection_type": db.ConnectionType(),
		"username":        db.Username,
		"log_schema":      db.LogSchema,
		"plan_schema":     db.PlanSchema,
		"pool_size":       fmt.Sprintf("%d-%d", db.PoolMin, db.PoolMax),
	}
}

// Address returns host:port for the HTTP listener.
func (a *APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %q is not an integer", key, raw)
	}
	*dst = n
	return nil
}

// getEnvDuration accepts either a Go duration ("45s") or a bare number of seconds.
func getEnvDuration(key string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
