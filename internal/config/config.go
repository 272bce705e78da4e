package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	AppName      = "apilog-cli"
	EnvPrefix    = "APILOG"
	DefaultURL   = "http://localhost:8000/api/v1/logs/ui"
	DefaultLimit = 200
)

type Config struct {
	URL   string `mapstructure:"url"`
	Limit int    `mapstructure:"limit"`
	HTTP  struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`
	Log struct {
		File  string `mapstructure:"file"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Clipboard struct {
		OSC52 bool `mapstructure:"osc52"`
	} `mapstructure:"clipboard"`
	UI struct {
		DaySeparators bool `mapstructure:"day_separators"`
	} `mapstructure:"ui"`

	// Set when a config file was read.
	File string `mapstructure:"-"`
}

type DefaultPaths struct {
	ConfigDir string
	LogFile   string
}

func GetDefaultPaths() DefaultPaths {
	configBase, err := os.UserConfigDir()
	if err != nil {
		configBase = "."
	}
	cacheBase, err := os.UserCacheDir()
	if err != nil {
		cacheBase = os.TempDir()
	}
	return DefaultPaths{
		ConfigDir: filepath.Join(configBase, AppName),
		LogFile:   filepath.Join(cacheBase, AppName, AppName+".log"),
	}
}

func SetDefaults(v *viper.Viper) {
	defaults := GetDefaultPaths()
	v.SetDefault("url", DefaultURL)
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("log.file", defaults.LogFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("clipboard.osc52", true)
	v.SetDefault("ui.day_separators", true)
}

// Load reads .env, the config file (cfgFile, or config.yaml in the user
// config dir or the working directory) and APILOG_* variables into v and
// decodes the result. Flags bound to v before the call take precedence.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("[config] failed to load .env: %v", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		path, err := expandTilde(cfgFile)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(GetDefaultPaths().ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	var err error
	if cfg.Log.File, err = expandTilde(cfg.Log.File); err != nil {
		return nil, err
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.HTTP.Timeout < 0 {
		cfg.HTTP.Timeout = 0
	}
	return cfg, nil
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
