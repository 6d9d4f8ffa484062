package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	DataDir             string `json:"data_dir"`
	LogLevel            string `json:"log_level"`
	MaxFulfillmentBytes int    `json:"max_fulfillment_bytes"`
}

// maxFulfillmentBytesCeiling caps the configurable fulfillment size.
const maxFulfillmentBytesCeiling = 1 << 24

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".cc-catalog"
	}
	return filepath.Join(home, ".cc-catalog")
}

func DefaultConfig() Config {
	return Config{
		DataDir:             DefaultDataDir(),
		LogLevel:            "info",
		MaxFulfillmentBytes: 64 << 10,
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxFulfillmentBytes <= 0 {
		return errors.New("max_fulfillment_bytes must be > 0")
	}
	if cfg.MaxFulfillmentBytes > maxFulfillmentBytesCeiling {
		return fmt.Errorf("max_fulfillment_bytes must be <= %d", maxFulfillmentBytesCeiling)
	}
	return nil
}

// LoadConfig reads a JSON config file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := readFileByPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config json: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFileByPath(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}
