// Package config handles configuration loading for healthscatter.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/internal/datasource"
)

// EnvPrefix prefixes every environment override, e.g. HEALTHSCATTER_API_PORT.
const EnvPrefix = "HEALTHSCATTER"

// Config represents the complete application configuration.
type Config struct {
	Chart   ChartConfig   `mapstructure:"chart"   yaml:"chart"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// ChartConfig selects a chart preset and optionally overrides its fields.
// Nil overrides keep the preset value.
type ChartConfig struct {
	Variant   string          `mapstructure:"variant"    yaml:"variant"` // "classic" or "starter"
	Width     *int            `mapstructure:"width"      yaml:"width,omitempty"`
	Height    *int            `mapstructure:"height"     yaml:"height,omitempty"`
	Margin    MarginOverride  `mapstructure:"margin"     yaml:"margin,omitempty"`
	Radius    *float64        `mapstructure:"radius"     yaml:"radius,omitempty"`
	Opacity   *float64        `mapstructure:"opacity"    yaml:"opacity,omitempty"`
	FontSize  *int            `mapstructure:"font_size"  yaml:"font_size,omitempty"`
	Padding   PaddingOverride `mapstructure:"padding"    yaml:"padding,omitempty"`
	Tooltip   TooltipOverride `mapstructure:"tooltip"    yaml:"tooltip,omitempty"`
	TickCount *int            `mapstructure:"tick_count" yaml:"tick_count,omitempty"`
	CaptionX  *string         `mapstructure:"caption_x"  yaml:"caption_x,omitempty"`
	CaptionY  *string         `mapstructure:"caption_y"  yaml:"caption_y,omitempty"`
}

// MarginOverride overrides individual margins.
type MarginOverride struct {
	Top    *int `mapstructure:"top"    yaml:"top,omitempty"`
	Right  *int `mapstructure:"right"  yaml:"right,omitempty"`
	Bottom *int `mapstructure:"bottom" yaml:"bottom,omitempty"`
	Left   *int `mapstructure:"left"   yaml:"left,omitempty"`
}

// PaddingOverride overrides the domain padding factors.
type PaddingOverride struct {
	Low  *float64 `mapstructure:"low"  yaml:"low,omitempty"`
	High *float64 `mapstructure:"high" yaml:"high,omitempty"`
}

// TooltipOverride overrides the tooltip [top, left] offset.
type TooltipOverride struct {
	Top  *float64 `mapstructure:"top"  yaml:"top,omitempty"`
	Left *float64 `mapstructure:"left" yaml:"left,omitempty"`
}

// DataConfig holds dataset loading settings.
type DataConfig struct {
	Source    string  `mapstructure:"source"     yaml:"source"`     // path or http(s) URL
	CacheTTL  int     `mapstructure:"cache_ttl"  yaml:"cache_ttl"`  // seconds, 0 disables
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // remote fetches per second
	Timeout   int     `mapstructure:"timeout"    yaml:"timeout"`    // seconds
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// overrideKeys are the optional chart keys. They have no default, so they
// are bound to the environment explicitly.
var overrideKeys = []string{
	"chart.width", "chart.height",
	"chart.margin.top", "chart.margin.right", "chart.margin.bottom", "chart.margin.left",
	"chart.radius", "chart.opacity", "chart.font_size",
	"chart.padding.low", "chart.padding.high",
	"chart.tooltip.top", "chart.tooltip.left",
	"chart.tick_count", "chart.caption_x", "chart.caption_y",
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.healthscatter/config.yaml (home directory)
//  3. /etc/healthscatter/config.yaml (system)
//
// Environment variables override config file values.
// Format: HEALTHSCATTER_<SECTION>_<KEY>, e.g., HEALTHSCATTER_CHART_VARIANT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".healthscatter"))
	v.AddConfigPath("/etc/healthscatter")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range overrideKeys {
		_ = v.BindEnv(k)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("chart.variant", chart.DefaultVariant)

	v.SetDefault("data.source", datasource.DefaultPath)
	v.SetDefault("data.cache_ttl", 300) // 5 minutes
	v.SetDefault("data.rate_limit", 5.0)
	v.SetDefault("data.timeout", 30)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// ResolveChart resolves the configured preset and applies the overrides.
func (c *Config) ResolveChart() (chart.Config, error) {
	out, err := chart.Preset(c.Chart.Variant)
	if err != nil {
		return chart.Config{}, err
	}
	o := c.Chart
	setInt(&out.Layout.Width, o.Width)
	setInt(&out.Layout.Height, o.Height)
	setInt(&out.Layout.Margin.Top, o.Margin.Top)
	setInt(&out.Layout.Margin.Right, o.Margin.Right)
	setInt(&out.Layout.Margin.Bottom, o.Margin.Bottom)
	setInt(&out.Layout.Margin.Left, o.Margin.Left)
	setFloat(&out.Marks.Radius, o.Radius)
	setFloat(&out.Marks.Opacity, o.Opacity)
	setInt(&out.Marks.FontSize, o.FontSize)
	setFloat(&out.Padding.Low, o.Padding.Low)
	setFloat(&out.Padding.High, o.Padding.High)
	setFloat(&out.Tooltip.Top, o.Tooltip.Top)
	setFloat(&out.Tooltip.Left, o.Tooltip.Left)
	setInt(&out.TickCount, o.TickCount)
	if o.CaptionX != nil {
		out.Captions.X = *o.CaptionX
	}
	if o.CaptionY != nil {
		out.Captions.Y = *o.CaptionY
	}
	return out, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the resolved chart and the server settings.
func (c *Config) Validate() error {
	cc, err := c.ResolveChart()
	if err != nil {
		return err
	}
	if err := cc.Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if strings.TrimSpace(c.Data.Source) == "" {
		return errors.New("data.source must not be empty")
	}
	if c.Data.CacheTTL < 0 {
		return fmt.Errorf("data.cache_ttl must not be negative, got %d", c.Data.CacheTTL)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// CacheTTL is the dataset cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Data.CacheTTL) * time.Second
}

// Timeout bounds a single dataset load.
func (c *Config) Timeout() time.Duration {
	if c.Data.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Data.Timeout) * time.Second
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
