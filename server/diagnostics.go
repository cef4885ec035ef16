package server

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"recursive_protocol_reviewer/auditlog"
	"recursive_protocol_reviewer/refiner"
)

// StartupEvent is one diagnostics line recorded while the service boots.
type StartupEvent struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Diagnostics collects startup events, echoing each one to the process
// log and appending it to startup.log in the audit directory.
type Diagnostics struct {
	audit  *auditlog.Logger
	events []StartupEvent
}

func NewDiagnostics(audit *auditlog.Logger) *Diagnostics {
	return &Diagnostics{audit: audit}
}

func (d *Diagnostics) Record(level, message string) {
	level = strings.ToLower(level)
	prefix := map[string]string{"info": "INFO", "warning": "WARNING", "error": "ERROR"}[level]
	if prefix == "" {
		level = "info"
		prefix = "INFO"
	}
	log.Printf("%s: %s", prefix, message)
	d.events = append(d.events, StartupEvent{Level: level, Message: message})
	if err := d.audit.Startup(prefix, message); err != nil {
		log.Printf("WARNING: could not append to startup log: %v", err)
	}
}

// Warnings returns the recorded events that need operator attention
// (everything above info), for display on the web page.
func (d *Diagnostics) Warnings() []StartupEvent {
	var out []StartupEvent
	for _, ev := range d.events {
		if ev.Level != "info" {
			out = append(out, ev)
		}
	}
	return out
}

// Run reports the environment, loads .env if one is present, and fills
// the LLM API key from OPENAI_API_KEY when the config leaves it empty.
func (d *Diagnostics) Run(cfg *refiner.Config) {
	d.Record("info", "Environment diagnostics:")
	d.Record("info", fmt.Sprintf("  Go version: %s", runtime.Version()))
	d.Record("info", fmt.Sprintf("  Audit directory: %s", d.audit.Dir()))

	envPath := ".env"
	if _, err := os.Stat(envPath); err == nil {
		d.Record("info", fmt.Sprintf("  .env path: %s (found)", envPath))
		d.inspectEnvFile(envPath)
		loaded, err := loadDotEnv(envPath)
		switch {
		case err != nil:
			d.Record("warning", fmt.Sprintf("Could not load .env: %v", err))
		case loaded:
			d.Record("info", "  Loaded environment variables from .env.")
		default:
			d.Record("info", "  No new variables loaded from .env.")
		}
	} else {
		d.Record("info", fmt.Sprintf("  .env path: %s (missing)", envPath))
	}

	if cfg.LLM == nil {
		cfg.LLM = &refiner.LLMSettings{}
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if cfg.LLM.Provider == "mock" {
		return
	}
	d.checkAPIKey(cfg.LLM.APIKey)
}

// checkAPIKey flags the usual paste accidents: missing key, embedded
// newlines, wrong prefix, truncated value.
func (d *Diagnostics) checkAPIKey(key string) {
	if key == "" {
		d.Record("warning", "OPENAI_API_KEY is not set. Critique requests will fail until it is configured.")
		return
	}
	if strings.ContainsAny(key, "\r\n") {
		d.Record("warning", "OPENAI_API_KEY contains newline characters. Ensure the key is on a single line.")
	}
	if !strings.HasPrefix(key, "sk-") {
		d.Record("warning", "OPENAI_API_KEY does not start with 'sk-'. Double-check that the correct key was pasted.")
	}
	if len(key) < 50 {
		d.Record("warning", "OPENAI_API_KEY appears shorter than expected. Confirm the entire key was copied.")
	}
	d.Record("info", fmt.Sprintf("  Detected OPENAI_API_KEY with length %d.", len(key)))
}

func (d *Diagnostics) inspectEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.Record("warning", fmt.Sprintf("Could not read .env file for validation: %v", err))
		return
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			d.Record("warning", fmt.Sprintf(
				"Line %d of .env has no '=': %q. If this was intended to continue the OPENAI_API_KEY, merge it back onto a single line.",
				i+1, line))
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		if key != "OPENAI_API_KEY" {
			continue
		}
		if value == "" {
			d.Record("warning", "OPENAI_API_KEY is defined but empty in the .env file.")
		} else if len(value) < 50 {
			d.Record("warning", "OPENAI_API_KEY looks shorter than expected. Ensure the full key is present on one line in the .env file.")
		}
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !strings.Contains(next, "=") && !strings.HasPrefix(next, "#") {
				d.Record("warning", "Detected additional text on the line after OPENAI_API_KEY. This usually means the key was split across multiple lines.")
			}
		}
	}
}

// loadDotEnv sets variables from a .env file without overriding values
// already present in the environment. Reports whether anything new was
// set.
func loadDotEnv(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	loaded := false
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return loaded, err
		}
		loaded = true
	}
	return loaded, nil
}
