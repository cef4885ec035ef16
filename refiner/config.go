package refiner

import (
	"encoding/json"
	"errors"
	"os"
)

// Config holds the reviewer service configuration.
type Config struct {
	LLM        *LLMSettings `json:"llm,omitempty"`
	ServerAddr string       `json:"server_addr,omitempty"`
	AuditDir   string       `json:"audit_dir,omitempty"`
}

// LoadConfig reads JSON config from disk. A missing file is not an
// error: the service can run entirely from the environment
// (OPENAI_API_KEY) with defaults for everything else.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
