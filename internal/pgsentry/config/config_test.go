package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	if err := Load(v); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := Get()
	if cfg.Version != "0.1" {
		t.Errorf("default Version = %v, want 0.1", cfg.Version)
	}
	if cfg.Eve.QueryTextCap != 4096 {
		t.Errorf("default QueryTextCap = %v, want 4096", cfg.Eve.QueryTextCap)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Level = %v, want info", cfg.Logging.Level)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	v := viper.New()
	v.Set("version", "0.2")
	v.Set("eve.query_text_cap", 512)
	v.Set("output.file", "./eve.ndjson")
	v.Set("output.reject_file", "./rejected.ndjson")
	v.Set("output.run_log", "./run.ndjson")
	v.Set("logging.level", "debug")

	if err := Load(v); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := Get()
	if cfg.Version != "0.2" {
		t.Errorf("Version = %v, want 0.2", cfg.Version)
	}
	if cfg.Eve.QueryTextCap != 512 {
		t.Errorf("QueryTextCap = %v, want 512", cfg.Eve.QueryTextCap)
	}
	if cfg.Output.File != "./eve.ndjson" {
		t.Errorf("Output.File = %v, want ./eve.ndjson", cfg.Output.File)
	}
	if cfg.Output.RejectFile != "./rejected.ndjson" {
		t.Errorf("Output.RejectFile = %v, want ./rejected.ndjson", cfg.Output.RejectFile)
	}
	if cfg.Output.RunLog != "./run.ndjson" {
		t.Errorf("Output.RunLog = %v, want ./run.ndjson", cfg.Output.RunLog)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
}
