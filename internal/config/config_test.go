package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Name != "dexgraph" {
		t.Fatalf("app name = %q", cfg.App.Name)
	}
	if cfg.Flush.Interval != 30*time.Second {
		t.Fatalf("flush interval = %s", cfg.Flush.Interval)
	}
	if cfg.Protocol.BootstrapLockAmount != 1000 {
		t.Fatalf("bootstrap lock = %d", cfg.Protocol.BootstrapLockAmount)
	}
	if cfg.Protocol.LiquidityTokenDecimals != 18 {
		t.Fatalf("lp decimals = %d", cfg.Protocol.LiquidityTokenDecimals)
	}
	if len(cfg.Protocol.Whitelist) == 0 {
		t.Fatal("whitelist empty")
	}
	if cfg.Ingest.BatchSize != 2000 {
		t.Fatalf("batch size = %d", cfg.Ingest.BatchSize)
	}
}

func TestLoadNormalizesAddresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
protocol:
  factory_address: "0xEFA94DE7A4656D787667C749F7E1223D71E9FD1B"
  router_address: "0xE54CA86531E17EF3616D22CA28B0D458B6C89106"
  whitelist:
    - "0xD00AE08403B9BBB9124BB305C09058E32C39A48C"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Protocol.FactoryAddress != "0xefa94de7a4656d787667c749f7e1223d71e9fd1b" {
		t.Fatalf("factory not lowercased: %q", cfg.Protocol.FactoryAddress)
	}
	if cfg.Protocol.Whitelist[0] != "0xd00ae08403b9bbb9124bb305c09058e32c39a48c" {
		t.Fatalf("whitelist not lowercased: %q", cfg.Protocol.Whitelist[0])
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg.Flush.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero flush interval must fail validation")
	}

	cfg, _ = Load("")
	cfg.Protocol.Whitelist = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty whitelist must fail validation")
	}

	cfg, _ = Load("")
	cfg.Protocol.LiquidityTokenDecimals = 99
	if err := cfg.Validate(); err == nil {
		t.Fatal("out-of-range decimals must fail validation")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := cfg.ResolveMaxPoints(0); got != cfg.Export.MaxDataPoints {
		t.Fatalf("default = %d", got)
	}
	if got := cfg.ResolveMaxPoints(42); got != 42 {
		t.Fatalf("override = %d", got)
	}
}
