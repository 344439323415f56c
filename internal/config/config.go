package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	LogPath  string   `yaml:"log_path" env:"LOG_PATH" env-default:"/var/log/chatgate.log"`
	Database Database `yaml:"database"`
	HTTP     HTTP     `yaml:"http"`
	Auth     Auth     `yaml:"auth"`
	Telegram Telegram `yaml:"telegram"`
	Ledger   Ledger   `yaml:"ledger"`
	Cleanup  Cleanup  `yaml:"cleanup"`
}

type Database struct {
	Path      string `yaml:"path" env:"DB_PATH" env-default:"chatgate.db"`
	SpoolPath string `yaml:"spool_path" env:"AUDIT_SPOOL_PATH" env-default:"audit-spool.db"`
}

type HTTP struct {
	Enabled bool   `yaml:"enabled" env:"HTTP_ENABLED"`
	Addr    string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	// запросов в секунду с одного IP
	RateLimit float64 `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"10"`
	RateBurst int     `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"20"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"15m"`
	// bcrypt hash of the admin API key
	APIKeyHash string `yaml:"api_key_hash" env:"API_KEY_HASH"`
	// admin user id used as actor for requests authenticated by the API key
	APIActorID int64 `yaml:"api_actor_id" env:"API_ACTOR_ID"`
}

type Telegram struct {
	Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	Token   string `yaml:"token" env:"BOT_TOKEN"`
	OwnerID int64  `yaml:"owner_id" env:"OWNER_ID"`
	// язык интерфейса по умолчанию: ru или uk
	Lang string `yaml:"lang" env:"BOT_LANG" env-default:"ru"`
	// сколько результатов отдавать за один поиск
	PageSize int `yaml:"page_size" env:"SEARCH_PAGE_SIZE" env-default:"5"`
}

type Ledger struct {
	DefaultCredits int64         `yaml:"default_credits" env:"DEFAULT_CREDITS" env-default:"100"`
	OwnerCredits   int64         `yaml:"owner_credits" env:"OWNER_CREDITS" env-default:"1000000000"`
	InviteTTL      time.Duration `yaml:"invite_ttl" env:"INVITE_TTL" env-default:"1h"`
	SearchCost     int64         `yaml:"search_cost" env:"SEARCH_COST" env-default:"1"`
	ContributeGain int64         `yaml:"contribute_gain" env:"CONTRIBUTE_GAIN" env-default:"1"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
}

type RateLimit struct {
	MinInterval time.Duration `yaml:"min_interval" env:"RATE_MIN_INTERVAL" env-default:"2s"`
	// по умолчанию окно обновляется и на отклонённых попытках
	RefreshOnlyOnAllow bool          `yaml:"refresh_only_on_allow" env:"RATE_REFRESH_ONLY_ON_ALLOW"`
	BurstLimit         int           `yaml:"burst_limit" env:"RATE_BURST_LIMIT" env-default:"30"`
	BurstWindow        time.Duration `yaml:"burst_window" env:"RATE_BURST_WINDOW" env-default:"60s"`
	AutoBan            time.Duration `yaml:"auto_ban" env:"RATE_AUTO_BAN" env-default:"15m"`
}

type Cleanup struct {
	Schedule string `yaml:"schedule" env:"CLEANUP_SCHEDULE" env-default:"@hourly"`
	// how long expired invitations stay visible to their issuer
	InvitationRetention time.Duration `yaml:"invitation_retention" env:"INVITATION_RETENTION" env-default:"720h"`
	RateLimitRetention  time.Duration `yaml:"ratelimit_retention" env:"RATELIMIT_RETENTION" env-default:"24h"`
	SecretRetention     time.Duration `yaml:"secret_retention" env:"SECRET_RETENTION" env-default:"24h"`
	SpoolFlush          string        `yaml:"spool_flush" env:"SPOOL_FLUSH_SCHEDULE" env-default:"@every 1m"`
}

// MustLoad reads the config from the given path, or from env only when path is empty.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Ledger.DefaultCredits < 0 {
		return fmt.Errorf("ledger.default_credits must not be negative")
	}
	if c.Ledger.InviteTTL <= 0 {
		return fmt.Errorf("ledger.invite_ttl must be positive")
	}
	if c.Ledger.SearchCost <= 0 || c.Ledger.ContributeGain <= 0 {
		return fmt.Errorf("ledger.search_cost and ledger.contribute_gain must be positive")
	}
	if c.Ledger.RateLimit.MinInterval < 0 {
		return fmt.Errorf("ledger.rate_limit.min_interval must not be negative")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}
	if c.HTTP.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when http is enabled")
	}
	return nil
}
