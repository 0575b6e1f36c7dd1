package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/micro-ha/wol-server/internal/model"
)

const (
	defaultPort           = 8080
	defaultJWTSecret      = "your_jwt_secret_change_this_in_production"
	defaultAllowedOrigins = "*"
	defaultDataPath       = "./data/devices.json"
	defaultDBPath         = "./data/devices.db"
	defaultScanTimeout    = 15 * time.Second
	defaultScanCommand    = "arp-scan --localnet"
	defaultARPCommand     = "arp -a"
	defaultMQTTPrefix     = "wol-server"
	defaultMQTTClientID   = "wol-server"

	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config stores runtime settings loaded from an optional YAML file and environment variables.
type Config struct {
	HTTPAddr       string
	JWTSecret      string
	AllowedOrigins []string
	StoreDriver    string
	DataPath       string
	DBPath         string
	Wake           model.WakeDefaults
	ScanTimeout    time.Duration
	ScanInterval   time.Duration
	ScanCommand    []string
	ARPCommand     []string
	MQTT           MQTTConfig
	MetricsEnabled bool
	LogLevel       slog.Level
}

type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	Username    string
	Password    string
	ClientID    string
}

func (m MQTTConfig) Enabled() bool {
	return strings.TrimSpace(m.Broker) != ""
}

// fileConfig mirrors the YAML layout; zero values leave defaults untouched.
type fileConfig struct {
	HTTP struct {
		Port           int      `yaml:"port"`
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		DBPath string `yaml:"db_path"`
	} `yaml:"store"`
	Wake struct {
		BroadcastAddress string `yaml:"broadcast_address"`
		Port             int    `yaml:"port"`
	} `yaml:"wake"`
	Scan struct {
		Timeout    string `yaml:"timeout"`
		Interval   string `yaml:"interval"`
		Command    string `yaml:"command"`
		ARPCommand string `yaml:"arp_command"`
	} `yaml:"scan"`
	MQTT struct {
		Broker      string `yaml:"broker"`
		TopicPrefix string `yaml:"topic_prefix"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		ClientID    string `yaml:"client_id"`
	} `yaml:"mqtt"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load applies defaults, then CONFIG_FILE when set, then environment variables.
func Load() (Config, error) {
	port := defaultPort
	cfg := Config{
		JWTSecret:      defaultJWTSecret,
		AllowedOrigins: splitList(defaultAllowedOrigins),
		StoreDriver:    StoreFile,
		DataPath:       defaultDataPath,
		DBPath:         defaultDBPath,
		Wake:           model.DefaultWakeDefaults(),
		ScanTimeout:    defaultScanTimeout,
		ScanCommand:    strings.Fields(defaultScanCommand),
		ARPCommand:     strings.Fields(defaultARPCommand),
		MQTT:           MQTTConfig{TopicPrefix: defaultMQTTPrefix, ClientID: defaultMQTTClientID},
		MetricsEnabled: true,
		LogLevel:       slog.LevelInfo,
	}

	if path := getenv("CONFIG_FILE", ""); path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		port = fc.apply(&cfg, port)
	}

	port = parseInt("PORT", port)
	cfg.HTTPAddr = getenv("HTTP_ADDR", orDefault(cfg.HTTPAddr, ":"+strconv.Itoa(port)))
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	if raw := getenv("ALLOWED_ORIGINS", ""); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	cfg.StoreDriver = strings.ToLower(getenv("STORE_DRIVER", cfg.StoreDriver))
	cfg.DataPath = getenv("DATA_PATH", cfg.DataPath)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.Wake.BroadcastAddress = getenv("WAKE_BROADCAST_ADDRESS", cfg.Wake.BroadcastAddress)
	cfg.Wake.Port = parseInt("WAKE_PORT", cfg.Wake.Port)
	cfg.ScanTimeout = parseDuration("SCAN_TIMEOUT", cfg.ScanTimeout)
	cfg.ScanInterval = parseInterval("SCAN_INTERVAL", cfg.ScanInterval)
	if raw := getenv("SCAN_COMMAND", ""); raw != "" {
		cfg.ScanCommand = strings.Fields(raw)
	}
	if raw := getenv("ARP_COMMAND", ""); raw != "" {
		cfg.ARPCommand = strings.Fields(raw)
	}
	cfg.MQTT.Broker = getenv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.TopicPrefix = getenv("MQTT_TOPIC_PREFIX", cfg.MQTT.TopicPrefix)
	cfg.MQTT.Username = getenv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getenv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.ClientID = getenv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MetricsEnabled = parseBool("METRICS_ENABLED", cfg.MetricsEnabled)
	if raw := getenv("LOG_LEVEL", ""); raw != "" {
		cfg.LogLevel = parseLogLevel(raw)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreFile, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.Wake.Port < 1 || c.Wake.Port > 65535 {
		errs = append(errs, fmt.Errorf("wake port %d out of range", c.Wake.Port))
	}
	probe := model.WakeTarget{MACAddress: "00:00:00:00:00:00", BroadcastAddress: c.Wake.BroadcastAddress, Port: model.DefaultWakePort}
	if err := probe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("wake broadcast address: %w", err))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt secret is empty"))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether tokens are signed with the published fallback secret.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) apply(cfg *Config, port int) int {
	if fc.HTTP.Port > 0 {
		port = fc.HTTP.Port
	}
	cfg.HTTPAddr = orDefault(strings.TrimSpace(fc.HTTP.Addr), cfg.HTTPAddr)
	if len(fc.HTTP.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = splitList(strings.Join(fc.HTTP.AllowedOrigins, ","))
	}
	cfg.JWTSecret = orDefault(fc.Auth.JWTSecret, cfg.JWTSecret)
	cfg.StoreDriver = strings.ToLower(orDefault(fc.Store.Driver, cfg.StoreDriver))
	cfg.DataPath = orDefault(fc.Store.Path, cfg.DataPath)
	cfg.DBPath = orDefault(fc.Store.DBPath, cfg.DBPath)
	cfg.Wake.BroadcastAddress = orDefault(fc.Wake.BroadcastAddress, cfg.Wake.BroadcastAddress)
	if fc.Wake.Port != 0 {
		cfg.Wake.Port = fc.Wake.Port
	}
	if d, err := time.ParseDuration(strings.TrimSpace(fc.Scan.Timeout)); err == nil && d > 0 {
		cfg.ScanTimeout = d
	}
	if d, err := time.ParseDuration(strings.TrimSpace(fc.Scan.Interval)); err == nil && d >= 0 {
		cfg.ScanInterval = d
	}
	if fields := strings.Fields(fc.Scan.Command); len(fields) > 0 {
		cfg.ScanCommand = fields
	}
	if fields := strings.Fields(fc.Scan.ARPCommand); len(fields) > 0 {
		cfg.ARPCommand = fields
	}
	cfg.MQTT.Broker = orDefault(fc.MQTT.Broker, cfg.MQTT.Broker)
	cfg.MQTT.TopicPrefix = orDefault(fc.MQTT.TopicPrefix, cfg.MQTT.TopicPrefix)
	cfg.MQTT.Username = orDefault(fc.MQTT.Username, cfg.MQTT.Username)
	cfg.MQTT.Password = orDefault(fc.MQTT.Password, cfg.MQTT.Password)
	cfg.MQTT.ClientID = orDefault(fc.MQTT.ClientID, cfg.MQTT.ClientID)
	if fc.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *fc.Metrics.Enabled
	}
	if fc.Logging.Level != "" {
		cfg.LogLevel = parseLogLevel(fc.Logging.Level)
	}
	return port
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// parseInterval accepts "0" to disable a periodic job.
func parseInterval(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if raw == "0" {
		return 0
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
