package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoadDefaults(t *testing.T) {
    cfg, err := Load("")
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Duct.Transport != "local" {
        t.Fatalf("default transport = %q", cfg.Duct.Transport)
    }
    if cfg.Log.Level != "info" || len(cfg.Log.Outputs) == 0 {
        t.Fatalf("bad log defaults: %#v", cfg.Log)
    }
}

func TestEnvOverride(t *testing.T) {
    t.Setenv("DUCTWORKS_LOG_LEVEL", "debug")
    t.Setenv("DUCTWORKS_DUCT_TRANSPORT", "tcp")
    cfg, err := Load("")
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Log.Level != "debug" {
        t.Fatalf("env log level not applied: %q", cfg.Log.Level)
    }
    if cfg.Duct.Transport != "tcp" {
        t.Fatalf("env transport not applied: %q", cfg.Duct.Transport)
    }
}

func TestLoadFile(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "ductworks.yaml")
    body := []byte("duct:\n  transport: tcp\n  bind: 127.0.0.1:0\n  max_message_bytes: 4096\nlog:\n  level: warn\n")
    if err := os.WriteFile(path, body, 0o644); err != nil { t.Fatalf("write: %v", err) }

    cfg, err := Load(path)
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Duct.Transport != "tcp" || cfg.Duct.MaxMessageBytes != 4096 {
        t.Fatalf("file values not applied: %#v", cfg.Duct)
    }
    if cfg.Log.Level != "warn" {
        t.Fatalf("file log level not applied: %q", cfg.Log.Level)
    }
}

func TestValidateRejectsBadValues(t *testing.T) {
    t.Setenv("DUCTWORKS_DUCT_TRANSPORT", "quic")
    if _, err := Load(""); err == nil {
        t.Fatalf("expected error for unsupported transport")
    }
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
    t.Setenv("DUCTWORKS_LOG_LEVEL", "chatty")
    if _, err := Load(""); err == nil {
        t.Fatalf("expected error for bad log level")
    }
}
