package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"snapserver/internal/model"
)

type Config struct {
	Port             int
	Password         string
	StorageRoot      string // base directory of the snapshot tree
	DatabasePath     string
	LogDirectory     string
	CamerasFile      string  // optional YAML camera registry
	CompareWorkers   int     // motion comparison workers
	CompareThreshold float64 // pixel-difference binarization cutoff
}

// Load reads configuration from the environment, after loading a .env file
// if one is present next to the binary.
func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		Password:         getEnv("PASSWORD", "changeme"),
		StorageRoot:      getEnv("STORAGE_ROOT", filepath.Join(".", "data", "cameras")),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "snapshots.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		CamerasFile:      getEnv("CAMERAS_FILE", ""),
		CompareWorkers:   getEnvAsInt("COMPARE_WORKERS", 3),
		CompareThreshold: float64(getEnvAsInt("COMPARE_THRESHOLD", 25)),
	}
}

// LoadCameras parses the optional YAML camera registry. An unset path yields
// an empty list, not an error.
func (c *Config) LoadCameras() ([]model.Camera, error) {
	if c.CamerasFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.CamerasFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read cameras file: %w", err)
	}

	var registry struct {
		Cameras []model.Camera `yaml:"cameras"`
	}
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse cameras file: %w", err)
	}

	return registry.Cameras, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
