package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() config failed validation: %v", err)
	}
}

func TestValidateRejectsBadFsyncPolicy(t *testing.T) {
	cfg := Default()
	cfg.AOF.Fsync = "sometimes"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for bad fsync policy")
	}
}

func TestValidateRejectsEnabledAOFWithoutPath(t *testing.T) {
	cfg := Default()
	cfg.AOF.Enabled = true
	cfg.AOF.Path = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for enabled AOF with empty path")
	}
}

func TestValidateRejectsShortCipherKey(t *testing.T) {
	cfg := Default()
	cfg.AOF.CipherKeyHex = "tooshort"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for short cipher key")
	}
}

func TestValidateRejectsEmptyBind(t *testing.T) {
	cfg := Default()
	cfg.Bind = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for empty bind address")
	}
}
