package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sales-stats/internal/dataset"
	"sales-stats/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PipelineConfig locates the source table and parameterises the computation.
type PipelineConfig struct {
	SourcePath         string   `mapstructure:"source_path"`
	OutputPath         string   `mapstructure:"output_path"`
	ChallengeColumn    string   `mapstructure:"challenge_column"`
	ChallengeThreshold int64    `mapstructure:"challenge_threshold"`
	PriceAliases       []string `mapstructure:"price_aliases"`
	QuantityAliases    []string `mapstructure:"quantity_aliases"`
	Comma              string   `mapstructure:"comma"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for run history.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	HistogramBins     int           `mapstructure:"histogram_bins"`
}

// WatchConfig governs periodic recomputation.
type WatchConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "salesstats")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.source_path", "data/dados.csv")
	v.SetDefault("pipeline.output_path", "data/stats.json")
	v.SetDefault("pipeline.challenge_column", "quantity")
	v.SetDefault("pipeline.challenge_threshold", 2)
	v.SetDefault("pipeline.price_aliases", []string{"price", "preco"})
	v.SetDefault("pipeline.quantity_aliases", []string{"quantity", "qtd"})
	v.SetDefault("pipeline.comma", ",")

	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.read_header_timeout", "5s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.histogram_bins", 10)

	v.SetDefault("watch.interval", "5m")
	v.SetDefault("watch.align_to_bucket", true)
	v.SetDefault("watch.startup_delay", "0s")

	v.SetDefault("export.max_data_points", 1000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Pipeline.SourcePath) == "" {
		return fmt.Errorf("pipeline.source_path is required")
	}
	if strings.TrimSpace(c.Pipeline.OutputPath) == "" {
		return fmt.Errorf("pipeline.output_path is required")
	}
	if _, err := dataset.ResolveColumn(c.Pipeline.ChallengeColumn, c.Pipeline.PriceAliases, c.Pipeline.QuantityAliases); err != nil {
		return fmt.Errorf("pipeline.challenge_column must name price, quantity or one of their aliases, got %q", c.Pipeline.ChallengeColumn)
	}
	if len([]rune(c.Pipeline.Comma)) != 1 {
		return fmt.Errorf("pipeline.comma must be a single character")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.HTTP.HistogramBins <= 0 {
		return fmt.Errorf("http.histogram_bins must be greater than zero")
	}
	return nil
}

// CommaRune returns the configured CSV delimiter.
func (c *Config) CommaRune() rune {
	r := []rune(c.Pipeline.Comma)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
