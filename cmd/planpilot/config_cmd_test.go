package main

import (
	"strings"
	"testing"
	"time"

	"github.com/planpilot/planpilot/internal/config"
)

func TestGetAndSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "service.base_url", "http://sched:8080"); err != nil {
		t.Fatalf("set base_url: %v", err)
	}
	if got, _ := getConfigValue(cfg, "service.base_url"); got != "http://sched:8080" {
		t.Errorf("base_url = %q", got)
	}

	if err := setConfigValue(cfg, "reasoner.timeout", "90s"); err != nil {
		t.Fatalf("set timeout: %v", err)
	}
	if cfg.Reasoner.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", cfg.Reasoner.Timeout)
	}

	if err := setConfigValue(cfg, "loop.max_iterations", "25"); err != nil {
		t.Fatalf("set max_iterations: %v", err)
	}
	if cfg.Loop.MaxIterations != 25 {
		t.Errorf("max_iterations = %d", cfg.Loop.MaxIterations)
	}

	if err := setConfigValue(cfg, "anthropic.use_bedrock", "true"); err != nil {
		t.Fatalf("set use_bedrock: %v", err)
	}
	if !cfg.Anthropic.UseBedrock {
		t.Error("use_bedrock should be true")
	}
}

func TestSetConfigValue_Invalid(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "loop.max_iterations", "0"); err == nil {
		t.Error("zero iterations should be rejected")
	}
	if err := setConfigValue(cfg, "service.timeout", "soon"); err == nil {
		t.Error("bad duration should be rejected")
	}
	if err := setConfigValue(cfg, "nonsense.key", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}
	if err := setConfigValue(cfg, "anthropic.api_key", "not-a-key"); err == nil {
		t.Error("malformed api key should be rejected")
	}
}

func TestGetConfigValue_MasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-api03-abcdefgh-wxyz"
	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("get api_key: %v", err)
	}
	if strings.Contains(got, "abcdefgh") {
		t.Errorf("api key should be masked, got %q", got)
	}
}
