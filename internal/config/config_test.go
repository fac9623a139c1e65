package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	body := "listen_addr: \":9090\"\nsession_cookie: \"\"\nws_send_buffer: 0\nenable_admin_http: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen_addr = %q", cfg.ListenAddr)
	}
	if !cfg.EnableAdminHTTP {
		t.Fatal("enable_admin_http not applied")
	}
	if cfg.SessionCookie != Defaults().SessionCookie || cfg.WSSendBuffer != Defaults().WSSendBuffer {
		t.Fatalf("normalize did not restore defaults: %+v", cfg)
	}
	if cfg.DBPath != Defaults().DBPath {
		t.Fatalf("unset field lost default: %q", cfg.DBPath)
	}
}

func TestLoadRejectsBlankRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("db_path: \"\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty db_path")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "server.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if cfg.SessionCookie != "emberhollow_session" {
		t.Fatalf("session_cookie = %q", cfg.SessionCookie)
	}
}
