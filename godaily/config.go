package godaily

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/godaily/godaily/config"
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

	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = config.DefaultTimezone
		cfg.Scheduler.Hour = config.DefaultScheduleHour
		cfg.Scheduler.Minute = config.DefaultScheduleMinute
	}
	return &cfg, nil
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Bot       BotConfig       `toml:"bot"`
	DB        DBConfig        `toml:"db"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// SchedulerConfig controls the once-daily claim run. In a sharded deployment
// only the leader instance fires the run; every other instance observes the
// same calendar trigger and no-ops.
type SchedulerConfig struct {
	Hour     int    `toml:"hour"`
	Minute   int    `toml:"minute"`
	Timezone string `toml:"timezone"`
	Leader   bool   `toml:"leader"`
}
