package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "optionlab.log")
	err := Init(Config{Level: "debug", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatal(err)
	}

	Info(context.Background(), "chain built", "symbol", "SPY")
	LogDuration(context.Background(), "timed block")()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"chain built"`) || !strings.Contains(out, `"symbol":"SPY"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"duration"`) {
		t.Fatalf("duration attribute missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
