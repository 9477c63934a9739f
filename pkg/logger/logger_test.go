package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/Bluenyg/BuptManus/internal/cli/config"
)

func TestContextRoundTrip(t *testing.T) {
	log, err := Setup(config.LogConfig{Level: "info", Format: "text", Output: "discard"})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(context.Background(), log)
	if got := FromContext(ctx); got != log {
		t.Fatal("FromContext did not return the attached logger")
	}

	// Without an attached logger, fall back to the process default.
	if got := FromContext(context.Background()); got == nil {
		t.Fatal("FromContext fallback returned nil")
	}
}

func TestWithError(t *testing.T) {
	log, err := Setup(config.LogConfig{Level: "debug", Format: "json", Output: "discard"})
	if err != nil {
		t.Fatal(err)
	}

	if got := WithError(log, nil); got != log {
		t.Error("nil error must not wrap the logger")
	}
	if got := WithError(log, errors.New("boom")); got == log {
		t.Error("error must produce a derived logger")
	}
}

func TestSetupRejectsBadConfig(t *testing.T) {
	cases := []config.LogConfig{
		{Level: "loud", Format: "text", Output: "discard"},
		{Level: "info", Format: "xml", Output: "discard"},
		{Level: "info", Format: "text", Output: "file"},
		{Level: "info", Format: "text", Output: "printer"},
	}
	for _, cfg := range cases {
		if _, err := Setup(cfg); err == nil {
			t.Errorf("Setup(%+v) accepted invalid config", cfg)
		}
	}
}
