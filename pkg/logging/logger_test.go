package logging

import (
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		level  string
		format string
		dev    bool
	}{
		{name: "defaults", env: map[string]string{}, level: "info", format: "json"},
		{name: "overrides", env: map[string]string{"LOG_LEVEL": "warn", "LOG_FORMAT": "console"}, level: "warn", format: "console"},
		{name: "development", env: map[string]string{"LOG_DEV": "true"}, level: "debug", format: "console", dev: true},
		{name: "development with level", env: map[string]string{"LOG_DEV": "true", "LOG_LEVEL": "error"}, level: "error", format: "console", dev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := ConfigFromEnv(func(key string) string { return tt.env[key] })

			if config.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, config.Level)
			}
			if config.Format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, config.Format)
			}
			if config.Development != tt.dev {
				t.Errorf("Expected development %v, got %v", tt.dev, config.Development)
			}
			if len(config.OutputPaths) != 1 || config.OutputPaths[0] != "stderr" {
				t.Errorf("Expected output to stderr, got %v", config.OutputPaths)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}

	badLevel := DefaultConfig()
	badLevel.Level = "verbose"
	if err := badLevel.Validate(); err == nil {
		t.Error("Expected error for unknown level")
	}

	badFormat := DefaultConfig()
	badFormat.Format = "xml"
	if err := badFormat.Validate(); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(DevelopmentConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithRun("run-1").Named("pipeline")
	if child == nil || child.Logger == nil {
		t.Fatal("Expected child logger")
	}
	child.Debug("debug entry")
}

func TestGlobal(t *testing.T) {
	previous := L()
	defer SetGlobal(previous)

	logger := NewNoOpLogger()
	SetGlobal(logger)

	if L() != logger {
		t.Error("Expected L to return the logger set with SetGlobal")
	}
}
