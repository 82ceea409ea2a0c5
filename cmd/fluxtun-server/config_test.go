package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJSONConfigSuccess(t *testing.T) {
	path := writeTempConfig(t, `{"listen":"0.0.0.0:29900","key":"secret","mtu":1350,"nocomp":true,"keepalive":17}`)

	var cfg serverConfig
	if err := parseJSONConfig(&cfg, path); err != nil {
		t.Fatalf("parseJSONConfig returned error: %v", err)
	}

	if cfg.Listen != "0.0.0.0:29900" {
		t.Fatalf("unexpected listen address: %+v", cfg)
	}

	if cfg.Key != "secret" {
		t.Fatalf("expected key to be populated")
	}

	if cfg.MTU != 1350 || !cfg.NoComp || cfg.KeepAlive != 17 {
		t.Fatalf("unexpected numeric or boolean fields: %+v", cfg)
	}
}

func TestParseJSONConfigMissingFile(t *testing.T) {
	var cfg serverConfig
	missing := filepath.Join(t.TempDir(), "missing.json")
	if err := parseJSONConfig(&cfg, missing); err == nil {
		t.Fatalf("parseJSONConfig expected error for missing file")
	}
}

func TestParseJSONConfigOverridesOnlySetFields(t *testing.T) {
	cfg := serverConfig{Listen: ":29900", Crypt: "aes", MTU: 1350}
	path := writeTempConfig(t, `{"crypt":"salsa20"}`)

	if err := parseJSONConfig(&cfg, path); err != nil {
		t.Fatalf("parseJSONConfig returned error: %v", err)
	}

	if cfg.Crypt != "salsa20" {
		t.Fatalf("expected crypt to be overridden, got %q", cfg.Crypt)
	}
	if cfg.Listen != ":29900" || cfg.MTU != 1350 {
		t.Fatalf("expected untouched fields to survive: %+v", cfg)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}
