// =============================================================================
// Shipment Report - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. Everything the engine needs to know about the shape of the
// source exports lives here:
//   - Column names of the order export (order id, payment id, tags, ...)
//   - Carrier classification rules (label + tag markers, in priority order)
//   - Output order of the carrier buckets
//   - CSV parsing settings (delimiter, encoding)
//   - Output naming, archival, logging and concurrency settings
//
// SOURCES (lowest to highest precedence):
//   1. Built-in defaults (see setDefaults)
//   2. Config file (shipreport.yaml, or the --config flag)
//   3. Environment variables (SHIPREPORT_OUTPUT_DIR, SHIPREPORT_LOG_LEVEL, ...)
//
// =============================================================================

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	Fields Fields `yaml:"fields" mapstructure:"fields"`

	// Carriers is the classification priority list. The first carrier whose
	// marker appears in the mother row's tags wins.
	Carriers []Carrier `yaml:"carriers" mapstructure:"carriers"`

	// BucketOrder is the order in which carrier buckets are written to the
	// report and walked by the aggregator. It must name every carrier once.
	BucketOrder []string `yaml:"bucket_order" mapstructure:"bucket_order"`

	// UnclassifiedLabel is the catch-all bucket name.
	UnclassifiedLabel string `yaml:"unclassified_label" mapstructure:"unclassified_label"`

	// UnknownPeriod is the period key used when a mother row has no usable
	// paid-at date.
	UnknownPeriod string `yaml:"unknown_period" mapstructure:"unknown_period"`

	CSV        CSVSettings      `yaml:"csv" mapstructure:"csv"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// Fields names the columns of the order export that the engine reads.
type Fields struct {
	OrderID          string `yaml:"order_id" mapstructure:"order_id"`
	PaymentID        string `yaml:"payment_id" mapstructure:"payment_id"`
	Tags             string `yaml:"tags" mapstructure:"tags"`
	PaidAt           string `yaml:"paid_at" mapstructure:"paid_at"`
	Subtotal         string `yaml:"subtotal" mapstructure:"subtotal"`
	Shipping         string `yaml:"shipping" mapstructure:"shipping"`
	FinancialStatus  string `yaml:"financial_status" mapstructure:"financial_status"`
	LineitemPrice    string `yaml:"lineitem_price" mapstructure:"lineitem_price"`
	LineitemQuantity string `yaml:"lineitem_quantity" mapstructure:"lineitem_quantity"`
	LineitemName     string `yaml:"lineitem_name" mapstructure:"lineitem_name"`
}

// Essential returns the column names every source file is expected to carry,
// in a stable order.
func (f Fields) Essential() []string {
	return []string{
		f.OrderID,
		f.PaymentID,
		f.Tags,
		f.PaidAt,
		f.Subtotal,
		f.Shipping,
		f.FinancialStatus,
		f.LineitemPrice,
		f.LineitemQuantity,
	}
}

// Carrier is a classification rule: an order whose mother row tags contain
// any of the markers is filed under Label.
type Carrier struct {
	Label   string   `yaml:"label" mapstructure:"label"`
	Markers []string `yaml:"markers" mapstructure:"markers"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing source CSV files.
type CSVSettings struct {
	// Delimiter is the field separator.
	// Accepted aliases: "tab", "\t", "pipe", "|", "semicolon", ";".
	// Default: ","
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`

	// Encoding is a WHATWG encoding label ("utf-8", "big5", "gbk", ...).
	// A leading byte order mark is always honoured.
	// Default: "utf-8"
	Encoding string `yaml:"encoding" mapstructure:"encoding"`

	// TrimSpace trims leading and trailing whitespace from every value.
	// Default: true
	TrimSpace bool `yaml:"trim_space" mapstructure:"trim_space"`
}

// OutputConfig controls where and how the report is written.
type OutputConfig struct {
	// Dir is the directory the report is written to.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// FilenameFormat supports the placeholders {period}, {date} and {uuid}.
	FilenameFormat string `yaml:"filename_format" mapstructure:"filename_format"`

	// ArchiveDir receives merged source files when archival is requested.
	// Empty disables archival.
	ArchiveDir string `yaml:"archive_dir" mapstructure:"archive_dir"`

	// ArchiveDateDirs files archived sources under YYYY/MM/DD subdirectories.
	// Default: false
	ArchiveDateDirs bool `yaml:"archive_date_dirs" mapstructure:"archive_date_dirs"`

	// DailySheet and MonthlySheet name the aggregate section.
	DailySheet   string `yaml:"daily_sheet" mapstructure:"daily_sheet"`
	MonthlySheet string `yaml:"monthly_sheet" mapstructure:"monthly_sheet"`
}

// ProcessingConfig controls batch processing.
type ProcessingConfig struct {
	// MaxConcurrency is the number of source files parsed at once.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration.
//
// PARAMETERS:
//   - configPath: explicit config file path. When empty, shipreport.yaml is
//     looked up in the working directory and its absence is not an error.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file exists but cannot be parsed, or validation fails.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shipreport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHIPREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults are static; a decode failure here is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// setDefaults registers every default value.
// The column names match the order export of the online store; the carrier
// markers match the tags the warehouse puts on each order.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fields.order_id", "Name")
	v.SetDefault("fields.payment_id", "Payment ID")
	v.SetDefault("fields.tags", "Tags")
	v.SetDefault("fields.paid_at", "Paid at")
	v.SetDefault("fields.subtotal", "Subtotal")
	v.SetDefault("fields.shipping", "Shipping")
	v.SetDefault("fields.financial_status", "Financial Status")
	v.SetDefault("fields.lineitem_price", "Lineitem price")
	v.SetDefault("fields.lineitem_quantity", "Lineitem quantity")
	v.SetDefault("fields.lineitem_name", "Lineitem name")

	v.SetDefault("carriers", []map[string]any{
		{"label": "宅配", "markers": []string{"宅配"}},
		{"label": "全家", "markers": []string{"全家"}},
		{"label": "7-11", "markers": []string{"7-11", "711"}},
	})
	v.SetDefault("bucket_order", []string{"宅配", "7-11", "全家"})
	v.SetDefault("unclassified_label", "未分類")
	v.SetDefault("unknown_period", "未知日期")

	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.encoding", "utf-8")
	v.SetDefault("csv.trim_space", true)

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.filename_format", "{period}_report_{date}.xlsx")
	v.SetDefault("output.archive_dir", "")
	v.SetDefault("output.archive_date_dirs", false)
	v.SetDefault("output.daily_sheet", "統計")
	v.SetDefault("output.monthly_sheet", "月份統計")

	v.SetDefault("processing.max_concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Fields.OrderID == "" {
		return eris.New("config: fields.order_id must not be empty")
	}
	if c.Fields.PaymentID == "" {
		return eris.New("config: fields.payment_id must not be empty")
	}
	if len(c.Carriers) == 0 {
		return eris.New("config: at least one carrier is required")
	}

	labels := make(map[string]bool, len(c.Carriers))
	for i, carrier := range c.Carriers {
		if carrier.Label == "" {
			return eris.Errorf("config: carriers[%d] has no label", i)
		}
		if len(carrier.Markers) == 0 {
			return eris.Errorf("config: carrier %q has no markers", carrier.Label)
		}
		if labels[carrier.Label] {
			return eris.Errorf("config: carrier %q listed twice", carrier.Label)
		}
		labels[carrier.Label] = true
	}

	if len(c.BucketOrder) != len(c.Carriers) {
		return eris.Errorf("config: bucket_order has %d entries, want %d", len(c.BucketOrder), len(c.Carriers))
	}
	seen := make(map[string]bool, len(c.BucketOrder))
	for _, label := range c.BucketOrder {
		if !labels[label] {
			return eris.Errorf("config: bucket_order names unknown carrier %q", label)
		}
		if seen[label] {
			return eris.Errorf("config: bucket_order lists %q twice", label)
		}
		seen[label] = true
	}

	if c.UnclassifiedLabel == "" || labels[c.UnclassifiedLabel] {
		return eris.Errorf("config: unclassified_label %q must be non-empty and distinct from carriers", c.UnclassifiedLabel)
	}
	if c.UnknownPeriod == "" {
		return eris.New("config: unknown_period must not be empty")
	}
	if c.Processing.MaxConcurrency < 1 {
		return eris.Errorf("config: processing.max_concurrency must be >= 1, got %d", c.Processing.MaxConcurrency)
	}

	return nil
}

// ToYAML renders the effective configuration as a YAML document that
// can be saved and passed back with --config.
func (c *Config) ToYAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal yaml")
	}
	return out, nil
}

// =============================================================================
// LOGGING
// =============================================================================

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
