package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Input parsing
	Delimiter          string   `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	Sheet              string   `mapstructure:"sheet" yaml:"sheet"`
	MaxRows            int      `mapstructure:"max_rows" yaml:"max_rows"`
	MissingPolicy      string   `mapstructure:"missing_policy" yaml:"missing_policy"`
	EntityKeywords     []string `mapstructure:"entity_keywords" yaml:"entity_keywords"`

	// Charts
	ChartKind   string `mapstructure:"chart_kind" yaml:"chart_kind"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`

	// Web server
	ServerAddr     string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Delimiter:      ",",
		MissingPolicy:  "drop",
		EntityKeywords: []string{"country", "pais", "país"},
		ChartKind:      "line",
		ChartFormat:    "png",
		ChartWidth:     1200,
		ChartHeight:    600,
		OutputDir:      ".",
		ServerAddr:     ":8050",
		MaxUploadBytes: 32 << 20,
	}
}

// Dir returns ~/.popgraph.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".popgraph"), nil
}

// Path returns cfgFile when set, else ~/.popgraph/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.popgraph/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("POPGRAPH")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("sheet", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("missing_policy", d.MissingPolicy)
	v.SetDefault("entity_keywords", d.EntityKeywords)
	v.SetDefault("chart_kind", d.ChartKind)
	v.SetDefault("chart_format", d.ChartFormat)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, raw string) error{
	"delimiter":           func(c *Global, raw string) error { c.Delimiter = raw; return nil },
	"decimal_separator":   func(c *Global, raw string) error { c.DecimalSeparator = raw; return nil },
	"thousands_separator": func(c *Global, raw string) error { c.ThousandsSeparator = raw; return nil },
	"sheet":               func(c *Global, raw string) error { c.Sheet = raw; return nil },
	"missing_policy":      func(c *Global, raw string) error { c.MissingPolicy = raw; return nil },
	"chart_kind":          func(c *Global, raw string) error { c.ChartKind = raw; return nil },
	"chart_format":        func(c *Global, raw string) error { c.ChartFormat = raw; return nil },
	"output_dir":          func(c *Global, raw string) error { c.OutputDir = raw; return nil },
	"server_addr":         func(c *Global, raw string) error { c.ServerAddr = raw; return nil },
	"entity_keywords": func(c *Global, raw string) error {
		var kw []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kw = append(kw, k)
			}
		}
		c.EntityKeywords = kw
		return nil
	},
	"max_rows":         intSetter(func(c *Global, n int) { c.MaxRows = n }),
	"chart_width":      intSetter(func(c *Global, n int) { c.ChartWidth = n }),
	"chart_height":     intSetter(func(c *Global, n int) { c.ChartHeight = n }),
	"max_upload_bytes": intSetter(func(c *Global, n int) { c.MaxUploadBytes = int64(n) }),
}

func intSetter(apply func(c *Global, n int)) func(*Global, string) error {
	return func(c *Global, raw string) error {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("want an integer: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("want a non-negative integer, got %d", n)
		}
		apply(c, n)
		return nil
	}
}

// Set assigns raw to key, converting it to the field type.
func (c *Global) Set(key, raw string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, raw); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
