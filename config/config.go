package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database  DatabaseConfigs  `toml:"database"`
	ApiServer APIServerConfigs `toml:"api_server"`
	Auth      AuthConfigs      `toml:"auth"`
	Storage   S3Configs        `toml:"storage"`
	File      FileConfigs      `toml:"file"`
	Redis     RedisConfigs     `toml:"redis"`
	Kafka     KafkaConfigs     `toml:"kafka"`
	Search    SearchConfigs    `toml:"search"`
	LLM       LLMConfigs       `toml:"llm"`
	Drop      DropConfigs      `toml:"drop"`
}

type DatabaseConfigs struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type APIServerConfigs struct {
	Host         string        `toml:"host"`
	Port         string        `toml:"port"`
	AllowOrigins []string      `toml:"allow_origins"`
	ReadTimeout  time.Duration `toml:"read_timeout"`

	// SuggestionsPerMinute limits the AI suggestion calls of a single sender.
	SuggestionsPerMinute int `toml:"suggestions_per_minute"`
}

func (c APIServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type AuthConfigs struct {
	TokenSecret string       `toml:"token_secret"`
	AccessToken TokenConfigs `toml:"access_token"`

	Google OAuth2Config `toml:"google"`
}

type OAuth2Config struct {
	Name     string `toml:"name"`
	Issuer   string `toml:"issuer"`
	ClientID string `toml:"client_id"`
	IDField  string `toml:"id_field"`
}

type TokenConfigs struct {
	Name       string        `toml:"name"`
	Expiration time.Duration `toml:"expiration"`
}

type S3Configs struct {
	Region         string `toml:"region"`
	Endpoint       string `toml:"endpoint"`
	PublicEndpoint string `toml:"public_endpoint"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	SSLDisabled    bool   `toml:"ssl_disabled"`
}

type FileConfigs struct {
	// MaxSize is in megabytes.
	MaxSize int `toml:"max_size"`

	// Card images with a side above MaxImageDimension pixels are downscaled.
	MaxImageDimension int `toml:"max_image_dimension"`
}

type RedisConfigs struct {
	Addr     string        `toml:"addr"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

type KafkaConfigs struct {
	Addr  string `toml:"addr"`
	Topic string `toml:"topic"`
}

type SearchConfigs struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	EngineID string `toml:"engine_id"`
	PageSize int    `toml:"page_size"`
	MaxPages int    `toml:"max_pages"`
}

type LLMConfigs struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

type DropConfigs struct {
	ShareBaseURL string        `toml:"share_base_url"`
	RevealDelay  time.Duration `toml:"reveal_delay"`
	QRCodeSize   int           `toml:"qr_code_size"`
	NodeID       int64         `toml:"node_id"`
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		ApiServer: APIServerConfigs{
			Port:         "8080",
			AllowOrigins: []string{"*"},
			ReadTimeout:  30 * time.Second,

			SuggestionsPerMinute: 10,
		},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{Name: "access_token", Expiration: 24 * time.Hour},
			Google: OAuth2Config{
				Name:    "google",
				Issuer:  "https://accounts.google.com",
				IDField: "email",
			},
		},
		File:  FileConfigs{MaxSize: 20, MaxImageDimension: 1920},
		Redis: RedisConfigs{CacheTTL: 10 * time.Minute},
		Kafka: KafkaConfigs{Topic: "drop_events"},
		Search: SearchConfigs{
			Endpoint: "https://www.googleapis.com",
			PageSize: 10,
			MaxPages: 2,
		},
		LLM: LLMConfigs{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-1.5-flash",
		},
		Drop: DropConfigs{
			ShareBaseURL: "http://localhost:3000",
			RevealDelay:  2 * time.Second,
			QRCodeSize:   256,
			NodeID:       1,
		},
	}
}

// Load reads the TOML file at path on top of Default. ${VAR} references in the
// file are expanded from the environment so secrets can stay out of it. A
// missing file yields the defaults.
func Load(path string) (Configs, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Configs{}, fmt.Errorf("read config: %w", err)
	}

	if _, err := toml.Decode(os.ExpandEnv(string(b)), &cfg); err != nil {
		return Configs{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Configs) normalize() {
	def := Default()
	c.Drop.ShareBaseURL = strings.TrimRight(strings.TrimSpace(c.Drop.ShareBaseURL), "/")
	if c.Drop.ShareBaseURL == "" {
		c.Drop.ShareBaseURL = def.Drop.ShareBaseURL
	}

	if c.Search.PageSize <= 0 || c.Search.PageSize > 20 {
		c.Search.PageSize = def.Search.PageSize
	}

	if c.Search.MaxPages <= 0 {
		c.Search.MaxPages = def.Search.MaxPages
	}

	if c.File.MaxSize <= 0 {
		c.File.MaxSize = def.File.MaxSize
	}

	if c.File.MaxImageDimension <= 0 {
		c.File.MaxImageDimension = def.File.MaxImageDimension
	}

	if c.ApiServer.SuggestionsPerMinute <= 0 {
		c.ApiServer.SuggestionsPerMinute = def.ApiServer.SuggestionsPerMinute
	}

	if c.Drop.QRCodeSize <= 0 {
		c.Drop.QRCodeSize = def.Drop.QRCodeSize
	}

	if strings.TrimSpace(c.ApiServer.Port) == "" {
		c.ApiServer.Port = def.ApiServer.Port
	}
}
