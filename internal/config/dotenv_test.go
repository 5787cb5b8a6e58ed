package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RoomCodeLength != 4 {
		t.Fatalf("expected default room code length 4, got %d", cfg.RoomCodeLength)
	}
	if cfg.PartyHandoffTimeout != 3*time.Second {
		t.Fatalf("expected default handoff timeout 3s, got %s", cfg.PartyHandoffTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PARTY_HANDOFF_TIMEOUT", "750ms")
	t.Setenv("ROOM_CODE_LENGTH", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.PartyHandoffTimeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %s", cfg.PartyHandoffTimeout)
	}
	if cfg.RoomCodeLength != 6 {
		t.Fatalf("expected room code length 6, got %d", cfg.RoomCodeLength)
	}
	if cfg.DBMaxOpenConns != 10 {
		t.Fatalf("expected untouched default, got %d", cfg.DBMaxOpenConns)
	}
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("ROOM_CODE_MAX_ATTEMPTS", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadRejectsRoomCodeLengthOutOfRange(t *testing.T) {
	for _, value := range []string{"0", "3", "9", "10", "13"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("ROOM_CODE_LENGTH", value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for ROOM_CODE_LENGTH=%s", value)
			}
			if !strings.Contains(err.Error(), "ROOM_CODE_LENGTH must be between 4 and 8") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadAcceptsRoomCodeLengthBounds(t *testing.T) {
	for _, value := range []string{"4", "8"} {
		t.Setenv("ROOM_CODE_LENGTH", value)
		if _, err := Load(); err != nil {
			t.Fatalf("ROOM_CODE_LENGTH=%s: %v", value, err)
		}
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CARDFORGE_TEST_A=from-file\nCARDFORGE_TEST_B=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CARDFORGE_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("CARDFORGE_TEST_B") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("CARDFORGE_TEST_A"); got != "from-env" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
	if got := os.Getenv("CARDFORGE_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be enabled")
	}

	if _, err := NewLogger("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}
