package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Events struct {
		Channel string `yaml:"channel"`
	} `yaml:"events"`
	Results struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"results"`
	Sentiment struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"sentiment"`
	Embedding struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		Dim       int    `yaml:"dim"`
		OpenAIKey string `yaml:"openai_key"`
		OllamaURL string `yaml:"ollama_url"`
	} `yaml:"embedding"`
	LangDetect struct {
		EndpointURL string `yaml:"endpoint_url"`
	} `yaml:"lang_detect"`
	Submission struct {
		APIURL     string `yaml:"api_url"`
		Token      string `yaml:"token"`
		SchemaPath string `yaml:"schema_path"`
	} `yaml:"submission"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8090"
	cfg.Dev.Mode = true
	cfg.Events.Channel = "voice_classifications"
	cfg.Results.TTL = 30 * 24 * time.Hour
	cfg.Sentiment.Provider = "noop"
	cfg.Sentiment.Model = "claude-3-haiku-20240307"
	cfg.Embedding.Provider = "noop"
	cfg.Embedding.Dim = 256
	cfg.Submission.SchemaPath = "configs/schemas/submission.json"
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WV_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("WV_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("WV_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("WV_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("WV_EVENTS_CHANNEL"); v != "" {
		cfg.Events.Channel = v
	}
	if v := os.Getenv("WV_RESULTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Results.TTL = d
		}
	}
	if v := os.Getenv("WV_SENTIMENT_PROVIDER"); v != "" {
		cfg.Sentiment.Provider = v
	}
	if v := os.Getenv("WV_SENTIMENT_MODEL"); v != "" {
		cfg.Sentiment.Model = v
	}
	if v := os.Getenv("WV_ANTHROPIC_API_KEY"); v != "" {
		cfg.Sentiment.APIKey = v
	}
	if v := os.Getenv("WV_SENTIMENT_BASE_URL"); v != "" {
		cfg.Sentiment.BaseURL = v
	}
	if v := os.Getenv("WV_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("WV_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("WV_EMBED_DIM"); v != "" {
		if dim, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dim = dim
		}
	}
	if v := os.Getenv("WV_OPENAI_API_KEY"); v != "" {
		cfg.Embedding.OpenAIKey = v
	}
	if v := os.Getenv("WV_OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("WV_LANG_DETECT_URL"); v != "" {
		cfg.LangDetect.EndpointURL = v
	}
	if v := os.Getenv("WV_SUBMISSION_API_URL"); v != "" {
		cfg.Submission.APIURL = v
	}
	if v := os.Getenv("WV_SUBMISSION_TOKEN"); v != "" {
		cfg.Submission.Token = v
	}
	if v := os.Getenv("WV_SUBMISSION_SCHEMA_PATH"); v != "" {
		cfg.Submission.SchemaPath = v
	}
	if v := os.Getenv("WV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
