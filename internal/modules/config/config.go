package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"signal_bot/internal/models"
)

const (
	configFileENV   = "CONFIG_FILE"
	channelsFileENV = "CHANNELS_FILE"

	defaultConfigFile   = "configs/values_local.yaml"
	defaultChannelsFile = "configs/channels.yaml"
)

type Config struct {
	// Telegram
	TelegramToken string `mapstructure:"telegram_token"`

	// Биржа
	Exchange  string `mapstructure:"exchange"` // bybit | xt
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	// Риск на сделку
	// Balance — депозит в USDT; RiskPct — сколько процентов депозита
	// уходит в маржу одной позиции, диапазон (0, 100].
	Balance float64 `mapstructure:"balance"`
	RiskPct float64 `mapstructure:"risk_pct"`

	// Jaeger-агент
	JaegerHost string `mapstructure:"jaeger_host"`
	JaegerPort int    `mapstructure:"jaeger_port"`

	LogLevel string `mapstructure:"log_level"`

	// Каналы-источники, грузятся из отдельного файла
	Channels []models.Channel `mapstructure:"-"`
}

func NewConfig() (*Config, error) {
	v := viper.New()
	// ключи без значения регистрируются, иначе AutomaticEnv их не свяжет
	v.SetDefault("telegram_token", "")
	v.SetDefault("api_key", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("balance", 0.0)
	v.SetDefault("exchange", "bybit")
	v.SetDefault("risk_pct", 1.0)
	v.SetDefault("jaeger_host", "localhost")
	v.SetDefault("jaeger_port", 6831)
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	// env-переменные перекрывают yaml; сам файл опционален
	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "чтение конфига %s", configFile)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "разбор конфига")
	}

	channels, err := loadChannels()
	if err != nil {
		return nil, err
	}
	cfg.Channels = channels

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN обязателен")
	}
	if c.Exchange != "bybit" && c.Exchange != "xt" {
		return fmt.Errorf("EXCHANGE должен быть bybit или xt, получено %q", c.Exchange)
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("API_KEY и API_SECRET обязательны")
	}
	if c.Balance <= 0 {
		return fmt.Errorf("BALANCE должен быть положительным числом")
	}
	if c.RiskPct <= 0 || c.RiskPct > 100 {
		return fmt.Errorf("RISK_PCT должен быть в диапазоне (0, 100]")
	}
	return nil
}

// EnabledChannels — каналы, с которых принимаются сигналы.
func (c *Config) EnabledChannels() []models.Channel {
	return lo.Filter(c.Channels, func(ch models.Channel, _ int) bool {
		return ch.Enabled
	})
}

func loadChannels() ([]models.Channel, error) {
	channelsFile := os.Getenv(channelsFileENV)
	if channelsFile == "" {
		channelsFile = defaultChannelsFile
	}

	file, err := os.Open(channelsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "открытие файла каналов %s", channelsFile)
	}
	defer func() {
		_ = file.Close()
	}()

	var parsed struct {
		Channels []models.Channel `yaml:"channels"`
	}
	if err := yaml.NewDecoder(file).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "разбор файла каналов %s", channelsFile)
	}
	return parsed.Channels, nil
}
