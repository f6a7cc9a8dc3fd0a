package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	InputPath string `toml:"input_path"`
	OutputDir string `toml:"output_dir"`
	DBPath    string `toml:"db_path"`
	LogLevel  string `toml:"log_level"`
}

// Path returns the location of the optional config file.
func Path(home string) string {
	return filepath.Join(home, ".config", "chatrestore", "config.toml")
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath: "chat_history.json",
		OutputDir: "restored_chats",
		DBPath:    filepath.Join(home, ".config", "chatrestore", "records.db"),
		LogLevel:  "info",
	}

	cfgPath := Path(home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.InputPath = expandHome(cfg.InputPath, home)
	cfg.OutputDir = expandHome(cfg.OutputDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
