package handoff

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	API     APIConfig     `toml:"api"`
	Sync    SyncConfig    `toml:"sync"`
	Payment PaymentConfig `toml:"payment"`
	Cache   CacheConfig   `toml:"cache"`
	Places  PlacesConfig  `toml:"places"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	SessionToken   string `toml:"session_token"`
	LocalPartyID   string `toml:"local_party_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SyncConfig struct {
	NegotiationIntervalSeconds int `toml:"negotiation_interval_seconds"`
	ChatIntervalMillis         int `toml:"chat_interval_millis"`
	MessageConfirmSeconds      int `toml:"message_confirm_seconds"`
}

func (c SyncConfig) NegotiationInterval() time.Duration {
	return time.Duration(c.NegotiationIntervalSeconds) * time.Second
}

func (c SyncConfig) ChatInterval() time.Duration {
	return time.Duration(c.ChatIntervalMillis) * time.Millisecond
}

func (c SyncConfig) MessageConfirmWindow() time.Duration {
	return time.Duration(c.MessageConfirmSeconds) * time.Second
}

type PaymentConfig struct {
	WindowHours     int               `toml:"window_hours"`
	FeeAmount       string            `toml:"fee_amount"`
	FeeCurrency     string            `toml:"fee_currency"`
	DisplayCurrency string            `toml:"display_currency"`
	Rates           map[string]string `toml:"rates"`
}

func (c PaymentConfig) Window() time.Duration {
	if c.WindowHours <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.WindowHours) * time.Hour
}

type CacheConfig struct {
	DBPath            string `toml:"db_path"`
	ReadModelCapacity int    `toml:"read_model_capacity"`
}

type PlacesConfig struct {
	Entries []PlaceEntry `toml:"entries"`
}

type PlaceEntry struct {
	Name      string  `toml:"name"`
	Latitude  float64 `toml:"lat"`
	Longitude float64 `toml:"lng"`
}
