package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Export   ExportConfig   `mapstructure:"export"`
	Fonts    FontsConfig    `mapstructure:"fonts"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	History  HistoryConfig  `mapstructure:"history"`
	IMessage IMessageConfig `mapstructure:"imessage"`

	v *viper.Viper
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ExportConfig holds the screenshot export configuration
type ExportConfig struct {
	OutputDir          string        `mapstructure:"output_dir"`
	OpenAfterExport    bool          `mapstructure:"open_after_export"`
	AppName            string        `mapstructure:"app_name"`
	PixelRatio         float64       `mapstructure:"pixel_ratio"`
	FallbackPixelRatio float64       `mapstructure:"fallback_pixel_ratio"`
	ImageTimeout       time.Duration `mapstructure:"image_timeout"`
	SettleDelay        time.Duration `mapstructure:"settle_delay"`
}

// FontsConfig lists where font files are searched and which families the
// export waits for.
type FontsConfig struct {
	Dirs     []string `mapstructure:"dirs"`
	Families []string `mapstructure:"families"`
}

// ChatConfig holds the initial session settings
type ChatConfig struct {
	Platform    string `mapstructure:"platform"`
	ShowDateBar bool   `mapstructure:"show_date_bar"`
	Date        string `mapstructure:"date"`
}

// ProfilesConfig holds the profile preset store location
type ProfilesConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig holds the export history database location
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// IMessageConfig points at the Messages.app database used for imports
type IMessageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Dir returns ~/.firewood.
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".firewood")
}

func setDefaults(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(Dir(), "firewood.log"))

	v.SetDefault("export.output_dir", filepath.Join(homeDir, "Downloads"))
	v.SetDefault("export.open_after_export", false)
	v.SetDefault("export.app_name", "firewood")
	v.SetDefault("export.pixel_ratio", 3.0)
	v.SetDefault("export.fallback_pixel_ratio", 2.0)
	v.SetDefault("export.image_timeout", 5*time.Second)
	v.SetDefault("export.settle_delay", 500*time.Millisecond)

	v.SetDefault("fonts.dirs", []string{
		filepath.Join(Dir(), "fonts"),
		filepath.Join(homeDir, "Library", "Fonts"),
		"/Library/Fonts",
		"/System/Library/Fonts",
		"/usr/share/fonts",
		filepath.Join(homeDir, ".local", "share", "fonts"),
	})
	v.SetDefault("fonts.families", []string{"Pretendard", "Noto Sans KR", "Apple SD Gothic Neo", "Malgun Gothic"})

	v.SetDefault("chat.platform", "kakaotalk")
	v.SetDefault("chat.show_date_bar", true)
	v.SetDefault("chat.date", "2025-01-12")

	v.SetDefault("profiles.dir", filepath.Join(Dir(), "profiles"))
	v.SetDefault("history.db_path", filepath.Join(Dir(), "history.db"))
	v.SetDefault("imessage.db_path", filepath.Join(homeDir, "Library", "Messages", "chat.db"))
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"out":       "export.output_dir",
	"platform":  "chat.platform",
	"open":      "export.open_after_export",
	"log-level": "log.level",
}

// Load reads config.yaml from $CONFIG_PATH, the working directory or
// ~/.firewood, overlays FIREWOOD_* environment variables and any flags set
// in fs. A missing config file is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("FIREWOOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	config.v = v
	return &config, nil
}

// File returns the config file in use, or "" when running on defaults.
func (c *Config) File() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Watch calls fn with a freshly decoded Config whenever the config file
// changes on disk. It is a no-op when no file was loaded.
func (c *Config) Watch(fn func(*Config, error)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(decode(c.v))
	})
	c.v.WatchConfig()
}
