package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Geocoder    GeocoderConfig    `yaml:"geocoder"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Security    SecurityConfig    `yaml:"security"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	LocationTTL time.Duration `yaml:"location_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ExtractorConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Profile names the extraction configuration on the embedding engine.
	// Enrollment and recognition must send the same profile; templates
	// extracted under different profiles are not comparable.
	Profile string `yaml:"profile"`
}

type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RecognitionConfig carries the decision constants shared by enrollment,
// matching and settlement. Zero values are replaced with the documented
// defaults by Load.
type RecognitionConfig struct {
	MatchThreshold  float64       `yaml:"match_threshold"`
	RequiredAngles  int           `yaml:"required_angles"`
	FareAmount      string        `yaml:"fare_amount"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
	MinResolution   int           `yaml:"min_resolution"`
	MinFaceSize     int           `yaml:"min_face_size"`
}

type SecurityConfig struct {
	APIKey string `yaml:"api_key"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	CheckOrigin     bool          `yaml:"check_origin"`
	PingPeriod      time.Duration `yaml:"ping_period"`
}

func Load() (*Config, error) {
	// A missing .env file is fine; config.yaml is the source of truth.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config.yaml"
	}

	var config Config
	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	config.Recognition.applyDefaults()

	return &config, nil
}

// applyDefaults fills unset recognition constants: threshold 0.6, five
// enrollment angles, fare 20, 30 minute duplicate window, 100px minimum
// resolution, 50px minimum face box.
func (c *RecognitionConfig) applyDefaults() {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.6
	}
	if c.RequiredAngles == 0 {
		c.RequiredAngles = 5
	}
	if c.FareAmount == "" {
		c.FareAmount = "20"
	}
	if c.DuplicateWindow == 0 {
		c.DuplicateWindow = 30 * time.Minute
	}
	if c.MinResolution == 0 {
		c.MinResolution = 100
	}
	if c.MinFaceSize == 0 {
		c.MinFaceSize = 50
	}
}
