package main

import (
	"testing"

	"inferd/internal/config"
)

func TestMergeConfig(t *testing.T) {
	cfg := config.Config{Addr: ":8000", Threads: 4}
	file := config.Config{Addr: ":9999", Threads: 8}

	changed := func(name string) bool { return name == "addr" }
	mergeConfig(&cfg, file, changed)

	if cfg.Addr != ":8000" {
		t.Errorf("addr = %q, explicit flag should win over file value", cfg.Addr)
	}
	if cfg.Threads != 8 {
		t.Errorf("threads = %d, want file value 8", cfg.Threads)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("INFERD_TEST_INT", "42")
	if got := envInt("INFERD_TEST_INT", 7); got != 42 {
		t.Errorf("envInt = %d, want 42", got)
	}
	t.Setenv("INFERD_TEST_INT", "nope")
	if got := envInt("INFERD_TEST_INT", 7); got != 7 {
		t.Errorf("envInt fallback = %d, want 7", got)
	}
	if got := envInt("INFERD_TEST_UNSET", 7); got != 7 {
		t.Errorf("envInt unset = %d, want 7", got)
	}
}
