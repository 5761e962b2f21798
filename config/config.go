package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/configparser"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

// Flags
var (
	configPathFlag = flag.String("config-path", defaultConfigPath, "path to the YAML config file")
	helpFlag       = flag.Bool("help", false, "print help and exit")
)

// Errors
var (
	ErrHelpRequested = errors.New("help requested")
	ErrInvalidConfig = errors.New("invalid config")
)

const (
	defaultConfigPath = "config.yaml"
	defaultJWTSecret  = "supersecretkey"
	minMeterInterval  = 10 * time.Millisecond
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Log      LogConfig
		HTTP     HTTPConfig
		Meter    MeterConfig
		Vehicle  VehicleConfig
		Recorder RecorderConfig
		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Auth     Auth
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"INFO"`
	}

	HTTPConfig struct {
		Port string `env:"HTTP_PORT" default:"8080"`
	}

	MeterConfig struct {
		ClockInterval    time.Duration `env:"METER_CLOCK_INTERVAL" default:"1s"`
		WaitTickInterval time.Duration `env:"METER_WAIT_TICK_INTERVAL" default:"1s"`
		BlinkInterval    time.Duration `env:"METER_BLINK_INTERVAL" default:"500ms"`
		QueueSize        int           `env:"METER_QUEUE_SIZE" default:"256"`
		DisplayBuffer    int           `env:"METER_DISPLAY_BUFFER" default:"32"`
	}

	VehicleConfig struct {
		Plate  string `env:"VEHICLE_PLATE" default:"A000AA"`
		Model  string `env:"VEHICLE_MODEL" default:"unknown"`
		Driver string `env:"VEHICLE_DRIVER" default:"unknown"`
	}

	RecorderConfig struct {
		QueueSize int `env:"RECORDER_QUEUE_SIZE" default:"64"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"taximeter"`
		Password string `env:"DATABASE_PASSWORD" default:"taximeter"`
		Database string `env:"DATABASE_DATABASE" default:"taximeter"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"10"`         // максимум открытых соединений
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"1"`          // минимум соединений в пуле
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"` // макс. "время жизни" соединения
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`  // макс. "время простоя" соединения
	}

	RabbitMQConfig struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED" default:"true"`
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	Auth struct {
		Enabled        bool          `env:"AUTH_ENABLED" default:"false"`
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"12h"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=%d&pool_min_conns=%d&pool_max_conn_lifetime=%s&pool_max_conn_idle_time=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.MaxConns,
		c.MinConns,
		c.MaxConnLifetime,
		c.MaxConnIdleTime,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c VehicleConfig) Vehicle() models.Vehicle {
	return models.Vehicle{
		Plate:  c.Plate,
		Model:  c.Model,
		Driver: c.Driver,
	}
}

// NewConfig parses flags and loads the config file named by -config-path.
func NewConfig() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}
	if *helpFlag {
		return nil, ErrHelpRequested
	}
	return Load(*configPathFlag)
}

// Load reads the config from filepath and the environment. A missing
// default config file is tolerated.
func Load(filepath string) (*Config, error) {
	cfg := &Config{}

	if filepath == defaultConfigPath && !fileExists(filepath) {
		filepath = ""
	}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the parser cannot.
func (c *Config) Validate() error {
	var problems []string

	if !logger.ValidateLogLevel(c.Log.Level) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not one of DEBUG, INFO, WARN, ERROR", c.Log.Level))
	}
	for name, d := range map[string]time.Duration{
		"METER_CLOCK_INTERVAL":     c.Meter.ClockInterval,
		"METER_WAIT_TICK_INTERVAL": c.Meter.WaitTickInterval,
		"METER_BLINK_INTERVAL":     c.Meter.BlinkInterval,
	} {
		if d < minMeterInterval {
			problems = append(problems, fmt.Sprintf("%s must be at least %s", name, minMeterInterval))
		}
	}
	if c.Meter.QueueSize <= 0 {
		problems = append(problems, "METER_QUEUE_SIZE must be positive")
	}
	if c.Recorder.QueueSize <= 0 {
		problems = append(problems, "RECORDER_QUEUE_SIZE must be positive")
	}
	if c.Vehicle.Plate == "" {
		problems = append(problems, "VEHICLE_PLATE must be provided")
	}
	if c.Auth.Enabled && c.Auth.AccessTokenTTL <= 0 {
		problems = append(problems, "AUTH_ACCESS_TOKEN_TTL must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// WeakSecret reports whether auth runs with the shipped default secret.
func (c *Config) WeakSecret() bool {
	return c.Auth.Enabled && c.Auth.JWTSecret == defaultJWTSecret
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
