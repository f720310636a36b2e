package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("AUTH_FLOW", "")
	t.Setenv("DEFAULT_REGION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataDir != "./dados" {
		t.Errorf("DataDir = %q, want ./dados", cfg.DataDir)
	}
	if cfg.AuthFlow != FlowWeb {
		t.Errorf("AuthFlow = %q, want web", cfg.AuthFlow)
	}
	if cfg.DefaultRegion != "BR" {
		t.Errorf("DefaultRegion = %q, want BR", cfg.DefaultRegion)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_FLOW", "local")
	t.Setenv("SCHEDULER_INTERVAL", "5")
	t.Setenv("ENABLE_EMAIL_SUMMARY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AuthFlow != FlowLocal {
		t.Errorf("AuthFlow = %q, want local", cfg.AuthFlow)
	}
	if cfg.SchedulerInterval != 5 {
		t.Errorf("SchedulerInterval = %d, want 5", cfg.SchedulerInterval)
	}
	if !cfg.EnableEmailSummary {
		t.Error("EnableEmailSummary must be true")
	}
}

func TestValidateRejectsUnknownFlow(t *testing.T) {
	cfg := &Config{DataDir: "./dados", AuthFlow: "outro", SchedulerInterval: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown AUTH_FLOW must fail validation")
	}

	cfg.AuthFlow = FlowWeb
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
