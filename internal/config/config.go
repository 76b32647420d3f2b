package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey    = errors.New("GEMINI_API_KEY is not set")
	ErrInvalidThreshold = errors.New("confidence threshold must be within [0, 100]")
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// MaxUploadBytes caps the multipart form parsed per request.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

type ModelConfig struct {
	Path       string `yaml:"path"`
	LabelsPath string `yaml:"labels_path"`
	// ORTLibrary is the onnxruntime shared library. Empty uses the loader default.
	ORTLibrary string `yaml:"ort_library"`
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`
}

type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PipelineConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			MaxUploadBytes: 10 << 20,
		},
		Model: ModelConfig{
			Path:       "models/animal_classifier.onnx",
			LabelsPath: "models/class_indices.json",
			InputName:  "input",
			OutputName: "output",
		},
		GenAI: GenAIConfig{
			Model: "gemini-2.5-flash",
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Server.Port, "ECOVISION_PORT", "PORT")
	setString(&c.Model.Path, "ECOVISION_MODEL_PATH")
	setString(&c.Model.LabelsPath, "ECOVISION_LABELS_PATH")
	setString(&c.Model.ORTLibrary, "ECOVISION_ORT_LIBRARY")
	setString(&c.GenAI.Model, "ECOVISION_GENAI_MODEL")
	setString(&c.GenAI.APIKey, "GEMINI_API_KEY")
	setString(&c.Log.Level, "ECOVISION_LOG_LEVEL")
	setString(&c.Log.Format, "ECOVISION_LOG_FORMAT")

	if v := os.Getenv("ECOVISION_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ECOVISION_THRESHOLD %q: %w", v, err)
		}
		c.Pipeline.ConfidenceThreshold = threshold
	}
	return nil
}

// Validate reports configuration that must stop the process before it serves
// any request.
func (c *Config) Validate() error {
	if c.GenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, c.Pipeline.ConfidenceThreshold)
	}
	if c.Model.Path == "" || c.Model.LabelsPath == "" {
		return errors.New("model path and labels path are required")
	}
	return nil
}
