package config

import (
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/inferd-config.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMalformedInput(t *testing.T) {
	cases := []struct {
		file    string
		content string
	}{
		{"broken.yaml", "models_dir: /data/models\n: thread\n"},
		{"broken.json", `{"models_dir": "/data/models", "threads": }`},
		{"broken.toml", "models_dir=\"/data/models\"\nthreads\n"},
	}
	d := t.TempDir()
	for _, tc := range cases {
		p := writeTempFile(t, d, tc.file, tc.content)
		if _, err := Load(p); err == nil {
			t.Errorf("%s: expected unmarshal error", tc.file)
		}
	}
}
