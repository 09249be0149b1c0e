// Package config loads the dashboard configuration from YAML and the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Upstream price sources.
const (
	SourceSynthetic   = "synthetic"
	SourceCoinCap     = "coincap"
	SourceBinance     = "binance"
	SourceBybit       = "bybit"
	SourceHyperliquid = "hyperliquid"
)

// Environment variables holding secrets and overrides.
const (
	EnvCoinCapAPIKey  = "COINCAP_API_KEY"
	EnvRatesURL       = "PAPERDASH_RATES_URL"
	EnvHyperliquidKey = "HYPERLIQUID_PRIVATE_KEY"
)

// DefaultFile is written by the setup wizard and read by default.
const DefaultFile = "config.gen.yaml"

type Config struct {
	Pair            domain.Pair
	Source          string
	MarketQuote     string
	HistoryURL      string
	RatesURL        string
	RatesPath       string
	HyperliquidURL  string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	Samples         int
	SampleInterval  time.Duration
	BasePrice       decimal.Decimal
	GenesisAsset    decimal.Decimal
	GenesisQuote    decimal.Decimal
	Listen          string
	TLSDomains      []string
	CertCacheDir    string
	JournalDir      string
	ChartMaxPoints  int
	LabelCount      int
	EMAPeriod       int
	RSIPeriod       int

	// secrets, never read from YAML
	CoinCapAPIKey  string
	HyperliquidKey string
}

// ConfigTmp mirrors the YAML file. Amounts stay strings until parsed.
type ConfigTmp struct {
	Pair            string        `yaml:"pair"`
	Source          string        `yaml:"source,omitempty"`
	MarketQuote     string        `yaml:"market_quote,omitempty"`
	HistoryURL      string        `yaml:"history_url,omitempty"`
	RatesURL        string        `yaml:"rates_url,omitempty"`
	RatesPath       string        `yaml:"rates_path,omitempty"`
	HyperliquidURL  string        `yaml:"hyperliquid_url,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	RequestTimeout  time.Duration `yaml:"request_timeout,omitempty"`
	Samples         int           `yaml:"samples,omitempty"`
	SampleInterval  time.Duration `yaml:"sample_interval,omitempty"`
	BasePrice       string        `yaml:"base_price,omitempty"`
	GenesisAsset    string        `yaml:"genesis_asset,omitempty"`
	GenesisQuote    string        `yaml:"genesis_quote,omitempty"`
	Listen          string        `yaml:"listen,omitempty"`
	TLSDomains      []string      `yaml:"tls_domains,omitempty"`
	CertCacheDir    string        `yaml:"cert_cache_dir,omitempty"`
	JournalDir      string        `yaml:"journal_dir,omitempty"`
	ChartMaxPoints  *int          `yaml:"chart_max_points,omitempty"`
	LabelCount      int           `yaml:"label_count,omitempty"`
	EMAPeriod       int           `yaml:"ema_period,omitempty"`
	RSIPeriod       int           `yaml:"rsi_period,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Pair:            domain.Pair{From: "BTC", To: "EUR"},
		Source:          SourceSynthetic,
		MarketQuote:     "USDT",
		HyperliquidURL:  "https://api.hyperliquid.xyz",
		RefreshInterval: 10 * time.Second,
		RequestTimeout:  8 * time.Second,
		Samples:         96,
		SampleInterval:  15 * time.Minute,
		BasePrice:       decimal.NewFromInt(60000),
		GenesisAsset:    decimal.Zero,
		GenesisQuote:    decimal.NewFromInt(10000),
		Listen:          ":8080",
		CertCacheDir:    "./certs",
		JournalDir:      "./wal/trades",
		ChartMaxPoints:  8,
		LabelCount:      5,
		EMAPeriod:       12,
		RSIPeriod:       14,
	}
}

// LoadEnv loads .env style files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load env file %s", f)
		}
	}
	return nil
}

// Load reads path (absent file means defaults), applies secrets from the
// environment and validates the result.
func Load(path string) (Config, error) {
	var tmp ConfigTmp
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, errors.Wrapf(err, "read config %s", path)
		default:
			if err := yaml.Unmarshal(data, &tmp); err != nil {
				return Config{}, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	conf, err := tmp.Parse()
	if err != nil {
		return Config{}, err
	}
	conf.applyEnv()

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Parse converts the raw YAML values, falling back to defaults for empty fields.
func (c ConfigTmp) Parse() (Config, error) {
	conf := Default()

	if c.Pair != "" {
		pair, err := domain.ParsePair(c.Pair)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'pair' param in yaml config: %s", c.Pair)
		}
		conf.Pair = pair
	}

	setString(&conf.Source, strings.ToLower(c.Source))
	setString(&conf.MarketQuote, strings.ToUpper(c.MarketQuote))
	setString(&conf.HistoryURL, c.HistoryURL)
	setString(&conf.RatesURL, c.RatesURL)
	setString(&conf.RatesPath, c.RatesPath)
	setString(&conf.HyperliquidURL, c.HyperliquidURL)
	setString(&conf.Listen, c.Listen)
	setString(&conf.CertCacheDir, c.CertCacheDir)
	setString(&conf.JournalDir, c.JournalDir)

	setDuration(&conf.RefreshInterval, c.RefreshInterval)
	setDuration(&conf.RequestTimeout, c.RequestTimeout)
	setDuration(&conf.SampleInterval, c.SampleInterval)

	setInt(&conf.Samples, c.Samples)
	setInt(&conf.LabelCount, c.LabelCount)
	setInt(&conf.EMAPeriod, c.EMAPeriod)
	setInt(&conf.RSIPeriod, c.RSIPeriod)
	// zero is meaningful here: it disables downsampling
	if c.ChartMaxPoints != nil {
		conf.ChartMaxPoints = *c.ChartMaxPoints
	}

	if len(c.TLSDomains) > 0 {
		conf.TLSDomains = append([]string(nil), c.TLSDomains...)
	}

	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"base_price", c.BasePrice, &conf.BasePrice},
		{"genesis_asset", c.GenesisAsset, &conf.GenesisAsset},
		{"genesis_quote", c.GenesisQuote, &conf.GenesisQuote},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect '%s' param in yaml config (must be a decimal)", f.name)
		}
		*f.dst = d
	}

	return conf, nil
}

// Tmp converts back to the YAML form, used by the setup wizard.
func (c Config) Tmp() ConfigTmp {
	maxPoints := c.ChartMaxPoints
	return ConfigTmp{
		Pair:            c.Pair.String(),
		Source:          c.Source,
		MarketQuote:     c.MarketQuote,
		HistoryURL:      c.HistoryURL,
		RatesURL:        c.RatesURL,
		RatesPath:       c.RatesPath,
		HyperliquidURL:  c.HyperliquidURL,
		RefreshInterval: c.RefreshInterval,
		RequestTimeout:  c.RequestTimeout,
		Samples:         c.Samples,
		SampleInterval:  c.SampleInterval,
		BasePrice:       c.BasePrice.String(),
		GenesisAsset:    c.GenesisAsset.String(),
		GenesisQuote:    c.GenesisQuote.String(),
		Listen:          c.Listen,
		TLSDomains:      c.TLSDomains,
		CertCacheDir:    c.CertCacheDir,
		JournalDir:      c.JournalDir,
		ChartMaxPoints:  &maxPoints,
		LabelCount:      c.LabelCount,
		EMAPeriod:       c.EMAPeriod,
		RSIPeriod:       c.RSIPeriod,
	}
}

func (c *Config) applyEnv() {
	c.CoinCapAPIKey = os.Getenv(EnvCoinCapAPIKey)
	c.HyperliquidKey = os.Getenv(EnvHyperliquidKey)
	if u := os.Getenv(EnvRatesURL); u != "" {
		c.RatesURL = u
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error

	if c.Pair.From == "" || c.Pair.To == "" {
		err = multierr.Append(err, errors.New("pair is required"))
	}
	switch c.Source {
	case SourceSynthetic, SourceCoinCap, SourceBinance, SourceBybit, SourceHyperliquid:
	default:
		err = multierr.Append(err, errors.Errorf("unknown source %q", c.Source))
	}
	if (c.Source == SourceBinance || c.Source == SourceBybit) && c.MarketQuote == "" {
		err = multierr.Append(err, errors.New("market_quote is required for exchange sources"))
	}
	if c.RefreshInterval <= 0 {
		err = multierr.Append(err, errors.New("refresh_interval must be positive"))
	}
	if c.RequestTimeout <= 0 {
		err = multierr.Append(err, errors.New("request_timeout must be positive"))
	}
	if c.SampleInterval <= 0 {
		err = multierr.Append(err, errors.New("sample_interval must be positive"))
	}
	if c.Samples < 2 {
		err = multierr.Append(err, errors.New("samples must be at least 2"))
	}
	if !c.BasePrice.IsPositive() {
		err = multierr.Append(err, errors.New("base_price must be positive"))
	}
	if c.GenesisAsset.IsNegative() || c.GenesisQuote.IsNegative() {
		err = multierr.Append(err, errors.New("genesis balances must not be negative"))
	}
	if c.ChartMaxPoints < 0 {
		err = multierr.Append(err, errors.New("chart_max_points must not be negative"))
	}
	if c.LabelCount < 2 {
		err = multierr.Append(err, errors.New("label_count must be at least 2"))
	}
	if c.EMAPeriod < 1 || c.RSIPeriod < 1 {
		err = multierr.Append(err, errors.New("indicator periods must be positive"))
	}
	if c.Listen == "" && len(c.TLSDomains) == 0 {
		err = multierr.Append(err, errors.New("listen address is required"))
	}

	return err
}

// Genesis returns the configured starting wallet.
func (c Config) Genesis() domain.WalletState {
	return domain.WalletState{Asset: c.GenesisAsset, Quote: c.GenesisQuote}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
