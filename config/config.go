// Package config loads CLI settings from an optional YAML file, a .env file,
// OPTIONLAB_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcdannyboy/optionlab/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "OPTIONLAB"

type Config struct {
	Logger  logger.Config `mapstructure:"logger" yaml:"logger"`
	Pricing PricingConfig `mapstructure:"pricing" yaml:"pricing"`
	Chain   ChainConfig   `mapstructure:"chain" yaml:"chain"`
	Series  SeriesConfig  `mapstructure:"series" yaml:"series"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// PricingConfig tunes the numerical pricers.
type PricingConfig struct {
	TreeSteps int         `mapstructure:"tree_steps" yaml:"tree_steps"`
	Bumps     BumpsConfig `mapstructure:"bumps" yaml:"bumps"`
}

// BumpsConfig holds the finite-difference step sizes; spot and vol are
// relative, time is in years, rate is absolute.
type BumpsConfig struct {
	Spot float64 `mapstructure:"spot" yaml:"spot"`
	Vol  float64 `mapstructure:"vol" yaml:"vol"`
	Time float64 `mapstructure:"time" yaml:"time"`
	Rate float64 `mapstructure:"rate" yaml:"rate"`
}

// ChainConfig mirrors the synthetic chain build parameters.
type ChainConfig struct {
	Symbol         string  `mapstructure:"symbol" yaml:"symbol"`
	Underlying     float64 `mapstructure:"underlying" yaml:"underlying"`
	Days           float64 `mapstructure:"days" yaml:"days"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate" yaml:"risk_free_rate"`
	DividendYield  float64 `mapstructure:"dividend_yield" yaml:"dividend_yield"`
	Size           int     `mapstructure:"size" yaml:"size"`
	StrikeInterval float64 `mapstructure:"strike_interval" yaml:"strike_interval"`
	SkewSlope      float64 `mapstructure:"skew_slope" yaml:"skew_slope"`
	SmileCurvature float64 `mapstructure:"smile_curvature" yaml:"smile_curvature"`
	Volatility     float64 `mapstructure:"volatility" yaml:"volatility"`
	Spread         float64 `mapstructure:"spread" yaml:"spread"`
	ContractSize   float64 `mapstructure:"contract_size" yaml:"contract_size"`
	DecimalPlaces  int32   `mapstructure:"decimal_places" yaml:"decimal_places"`
}

type SeriesConfig struct {
	Days []int `mapstructure:"days" yaml:"days"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.file_path", "logs/optionlab.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("pricing.tree_steps", 500)
	v.SetDefault("pricing.bumps.spot", 1e-4)
	v.SetDefault("pricing.bumps.vol", 1e-4)
	v.SetDefault("pricing.bumps.time", 1.0/365.0)
	v.SetDefault("pricing.bumps.rate", 1e-4)

	v.SetDefault("chain.symbol", "SPY")
	v.SetDefault("chain.underlying", 100.0)
	v.SetDefault("chain.days", 30.0)
	v.SetDefault("chain.risk_free_rate", 0.05)
	v.SetDefault("chain.dividend_yield", 0.0)
	v.SetDefault("chain.size", 10)
	v.SetDefault("chain.strike_interval", 5.0)
	v.SetDefault("chain.skew_slope", -0.2)
	v.SetDefault("chain.smile_curvature", 0.1)
	v.SetDefault("chain.volatility", 0.2)
	v.SetDefault("chain.spread", 0.02)
	v.SetDefault("chain.contract_size", 100.0)
	v.SetDefault("chain.decimal_places", 2)

	v.SetDefault("series.days", []int{7, 30, 60, 90})

	v.SetDefault("output.dir", "out")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads path (optional, YAML) on top of the defaults, then applies a
// .env file from the working directory, OPTIONLAB_* variables and any flags
// changed in flags. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Flag names use dashes; they map onto the dotted viper keys, so
// --chain-size binds chain.size.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.Replace(f.Name, "-", ".", 1)
		key = strings.ReplaceAll(key, "-", "_")
		err = v.BindPFlag(key, f)
	})
	return err
}

func (c *Config) Validate() error {
	if c.Pricing.TreeSteps < 2 {
		return fmt.Errorf("pricing.tree_steps must be at least 2, got %d", c.Pricing.TreeSteps)
	}
	b := c.Pricing.Bumps
	if b.Spot <= 0 || b.Vol <= 0 || b.Time <= 0 || b.Rate <= 0 {
		return fmt.Errorf("pricing.bumps must all be positive")
	}
	if c.Chain.Underlying <= 0 {
		return fmt.Errorf("chain.underlying must be positive")
	}
	if c.Chain.StrikeInterval <= 0 {
		return fmt.Errorf("chain.strike_interval must be positive")
	}
	if c.Chain.Size < 0 {
		return fmt.Errorf("chain.size must not be negative")
	}
	if c.Chain.Volatility < 0 || c.Chain.Spread < 0 || c.Chain.DividendYield < 0 || c.Chain.Days < 0 {
		return fmt.Errorf("chain volatility, spread, dividend yield and days must not be negative")
	}
	for _, d := range c.Series.Days {
		if d <= 0 {
			return fmt.Errorf("series.days must be positive, got %d", d)
		}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path. An
// existing file is left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
