package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimit struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type Call struct {
	RingAllDevices bool `mapstructure:"ring_all_devices"`
}

// ICEServer is one STUN/TURN entry.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

func DefaultICEServers() []ICEServer {
	return []ICEServer{
		{URLs: []string{"stun:stun1.l.google.com:19302", "stun:stun2.l.google.com:19302"}},
	}
}

type ICE struct {
	Servers           []ICEServer `mapstructure:"servers"`
	CandidatePoolSize uint8       `mapstructure:"candidate_pool_size"`
}

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	Secret         string        `mapstructure:"secret"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	EventQueue     int           `mapstructure:"event_queue"`
	LogLevel       string        `mapstructure:"log_level"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      RateLimit     `mapstructure:"rate_limit"`
	Call           Call          `mapstructure:"call"`
	ICE            ICE           `mapstructure:"ice"`
}

// Loader keeps the viper instance so the file can be watched after Load.
type Loader struct {
	v    *viper.Viper
	file string
}

func NewLoader(env string) *Loader {
	if env == "" {
		env = os.Getenv("CONFIG_ENV")
	}
	if env == "" {
		env = "dev"
	}
	v := viper.New()
	v.SetConfigType("yaml")
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("event_queue", 1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("rate_limit.limit", 50)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("call.ring_all_devices", false)
	v.SetDefault("ice.candidate_pool_size", 10)

	return &Loader{v: v, file: fileName}
}

// Load reads the file if present; a missing file falls back to defaults.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", l.file).Err(err).Msg("config file not loaded, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", l.file).Msg("loaded config")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.ICE.Servers) == 0 {
		cfg.ICE.Servers = DefaultICEServers()
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

// WatchLogLevel re-applies log_level whenever the config file changes.
func (l *Loader) WatchLogLevel() {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := l.v.GetString("log_level")
		if err := ApplyLogLevel(level); err != nil {
			log.Warn().Str("module", "config").Err(err).Msg("log level not reloaded")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("log_level", level).Msg("config reloaded")
	})
	l.v.WatchConfig()
}

func ApplyLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
