package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env-required:"true" env-default:"production"`
	PGSQL      PQSQL      `yaml:"pgsql" env-required:"true"`
	Redis      Redis      `yaml:"redis" env-required:"true"`
	MinIO      MinIO      `yaml:"minio"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	Viewer     Viewer     `yaml:"viewer"`
	JWTSecret  string     `yaml:"jwt_secret" env-required:"true" env-default:"super_secret_key"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-required:"true" env-default:"localhost:8080"`
}

type PQSQL struct {
	Host     string `yaml:"host" env-required:"true" env-default:"localhost"`
	Port     string `yaml:"port" env-required:"true" env-default:"5432"`
	User     string `yaml:"user" env-required:"true" env-default:"postgres"`
	Password string `yaml:"password" env-required:"true" env-default:"password"`
	DBName   string `yaml:"dbname" env-required:"true" env-default:"stories_db"`
	SSLMode  string `yaml:"sslmode" env-required:"true" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type MinIO struct {
	Endpoint        string        `yaml:"endpoint" env-default:"localhost:9000"`
	AccessKeyID     string        `yaml:"access_key_id" env-default:"minioadmin"`
	SecretAccessKey string        `yaml:"secret_access_key" env-default:"minioadmin"`
	BucketName      string        `yaml:"bucket_name" env-default:"story-media"`
	UseSSL          bool          `yaml:"use_ssl" env-default:"false"`
	URLExpiry       time.Duration `yaml:"url_expiry" env-default:"15m"`
}

// Viewer holds playback and gesture tuning for the story viewer engine.
type Viewer struct {
	// DefaultStoryDuration is used when a story declares no duration.
	DefaultStoryDuration time.Duration `yaml:"default_story_duration" env-default:"5s"`
	// HoldDelay is how long a pointer must stay down without significant
	// movement before it counts as a hold (pause) rather than a tap.
	HoldDelay time.Duration `yaml:"hold_delay" env-default:"150ms"`
	// DragDismissThreshold is the vertical drag distance, in pixels, past
	// which releasing the drag closes the viewer.
	DragDismissThreshold float64 `yaml:"drag_dismiss_threshold" env-default:"120"`
	// MoveTolerance is the pointer travel, in pixels, below which movement
	// does not count as significant for hold detection.
	MoveTolerance float64 `yaml:"move_tolerance" env-default:"10"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
