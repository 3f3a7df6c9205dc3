package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine struct {
		ScanIntervalSeconds    int      `yaml:"scan_interval_seconds"`
		MaxConsecutiveFailures int      `yaml:"max_consecutive_failures"`
		Assets                 []string `yaml:"assets"`
	} `yaml:"engine"`

	Risk struct {
		MaxPositionSize       float64 `yaml:"max_position_size"`
		MaxDailyLoss          float64 `yaml:"max_daily_loss"`
		StopLossPct           float64 `yaml:"stop_loss_percentage"`
		MaxSlippagePct        float64 `yaml:"max_slippage_percentage"`
		MinProfitThreshold    float64 `yaml:"min_profit_threshold"`
		MaxConcurrentTrades   int     `yaml:"max_concurrent_trades"`
		CooldownPeriodSeconds int     `yaml:"cooldown_period_seconds"`
	} `yaml:"risk"`

	Market struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"market"`

	Funding struct {
		HorizonURL string  `yaml:"horizon_url"`
		AccountID  string  `yaml:"account_id"`
		MinBalance float64 `yaml:"min_balance"`
	} `yaml:"funding"`

	Redis struct {
		Addr        string `yaml:"addr"`
		DB          int    `yaml:"db"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TradeStream string `yaml:"trade_stream"`
		OppStream   string `yaml:"opp_stream"`
	} `yaml:"redis"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	Dash struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"dash"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.ScanIntervalSeconds == 0 {
		c.Engine.ScanIntervalSeconds = 15
	}
	if c.Engine.MaxConsecutiveFailures == 0 {
		c.Engine.MaxConsecutiveFailures = 5
	}
	if len(c.Engine.Assets) == 0 {
		c.Engine.Assets = []string{"XLM", "USDC", "AQUA"}
	}
	if c.Risk.MaxPositionSize == 0 {
		c.Risk.MaxPositionSize = 100.0
	}
	if c.Risk.MaxDailyLoss == 0 {
		c.Risk.MaxDailyLoss = 50.0
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 5.0
	}
	if c.Risk.MaxSlippagePct == 0 {
		c.Risk.MaxSlippagePct = 2.0
	}
	if c.Risk.MinProfitThreshold == 0 {
		c.Risk.MinProfitThreshold = 0.5
	}
	if c.Risk.MaxConcurrentTrades == 0 {
		c.Risk.MaxConcurrentTrades = 3
	}
	if c.Risk.CooldownPeriodSeconds == 0 {
		c.Risk.CooldownPeriodSeconds = 300
	}
	if c.Funding.HorizonURL == "" {
		c.Funding.HorizonURL = "https://horizon-testnet.stellar.org"
	}
	if c.Funding.MinBalance == 0 {
		c.Funding.MinBalance = 1.0
	}
	if c.Redis.TradeStream == "" {
		c.Redis.TradeStream = "arb:trades"
	}
	if c.Redis.OppStream == "" {
		c.Redis.OppStream = "arb:opps"
	}
}

// applyEnv layers environment overrides on top of the file, keeping the
// variable names the dashboard deployment already uses.
func (c *Config) applyEnv() {
	envInt("ARBITRAGE_SCAN_INTERVAL", &c.Engine.ScanIntervalSeconds)
	envFloat("MAX_POSITION_SIZE_XLM", &c.Risk.MaxPositionSize)
	envFloat("MAX_DAILY_LOSS_XLM", &c.Risk.MaxDailyLoss)
	envFloat("STOP_LOSS_PERCENTAGE", &c.Risk.StopLossPct)
	envFloat("MAX_SLIPPAGE_PERCENTAGE", &c.Risk.MaxSlippagePct)
	envFloat("MIN_PROFIT_THRESHOLD", &c.Risk.MinProfitThreshold)
	envInt("MAX_CONCURRENT_TRADES", &c.Risk.MaxConcurrentTrades)
	envInt("COOLDOWN_PERIOD_SECONDS", &c.Risk.CooldownPeriodSeconds)
	if v := os.Getenv("STELLAR_HORIZON_URL"); v != "" {
		c.Funding.HorizonURL = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c *Config) Validate() error {
	if c.Engine.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("config: scan_interval_seconds must be positive, got %d", c.Engine.ScanIntervalSeconds)
	}
	if c.Engine.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("config: max_consecutive_failures must be positive, got %d", c.Engine.MaxConsecutiveFailures)
	}
	if c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("config: max_position_size must be positive, got %g", c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxDailyLoss <= 0 {
		return fmt.Errorf("config: max_daily_loss must be positive, got %g", c.Risk.MaxDailyLoss)
	}
	if c.Risk.MinProfitThreshold < 0 {
		return fmt.Errorf("config: min_profit_threshold must not be negative, got %g", c.Risk.MinProfitThreshold)
	}
	if c.Risk.MaxConcurrentTrades <= 0 {
		return fmt.Errorf("config: max_concurrent_trades must be positive, got %d", c.Risk.MaxConcurrentTrades)
	}
	if c.Risk.CooldownPeriodSeconds < 0 {
		return fmt.Errorf("config: cooldown_period_seconds must not be negative, got %d", c.Risk.CooldownPeriodSeconds)
	}
	return nil
}

func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.ScanIntervalSeconds) * time.Second
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Risk.CooldownPeriodSeconds) * time.Second
}
