package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "empty", args: nil, want: options{}},
		{
			name: "short flags",
			args: []string{"-c", "/etc/keypad.toml", "-l", "debug"},
			want: options{configPath: "/etc/keypad.toml", logLevel: "debug"},
		},
		{
			name: "long flags",
			args: []string{"--config=keypad.yaml", "--interval", "250ms", "--version"},
			want: options{configPath: "keypad.yaml", interval: 250 * time.Millisecond, showVersion: true},
		},
		{name: "bad interval", args: []string{"--interval", "soon"}, wantErr: true},
		{name: "unknown flag", args: []string{"--colour"}, wantErr: true},
		{name: "positional argument", args: []string{"extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("parseFlags(--help) error = %v, want pflag.ErrHelp", err)
	}
}

func TestGetConfigPath_FlagWins(t *testing.T) {
	t.Setenv(configEnv, "/from/env.toml")

	got, err := getConfigPath("/from/flag.toml")
	if err != nil {
		t.Fatalf("getConfigPath() error = %v", err)
	}
	if got != "/from/flag.toml" {
		t.Errorf("getConfigPath() = %q, want flag path", got)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv(configEnv, expected)

	got, err := getConfigPath("")
	if err != nil {
		t.Fatalf("getConfigPath() error = %v", err)
	}
	if got != expected {
		t.Errorf("getConfigPath() = %q, want %q", got, expected)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv(configEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	got, err := getConfigPath("")
	if err != nil {
		t.Fatalf("getConfigPath() error = %v", err)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir() error = %v", err)
	}
	want := filepath.Join(dir, configDirName, configFileName)
	if got != want {
		t.Errorf("getConfigPath() = %q, want %q", got, want)
	}
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, options{configPath: "/nonexistent/path/config.yaml"}); err == nil {
		t.Fatal("run() should fail with a missing config file")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	// No pad records: validation fails before any broker connection.
	configPath := filepath.Join(t.TempDir(), "keypad.toml")
	content := `
[keypad]
subscribe_prefix = "keypad/1"
control_prefix = "keypad/1/control"
interval = "1s"

[mqtt.broker]
host = "127.0.0.1"
port = 1883
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, options{configPath: configPath}); err == nil {
		t.Fatal("run() should fail when pad records are missing")
	}
}

func TestRunTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started, stopped atomic.Int32
	task := func(ctx context.Context) {
		started.Add(1)
		<-ctx.Done()
		stopped.Add(1)
	}
	quick := func(context.Context) { started.Add(1) }

	done := make(chan error, 1)
	go func() { done <- runTasks(ctx, task, quick, task) }()

	deadline := time.Now().Add(2 * time.Second)
	for started.Load() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("started = %d, want 3", started.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A task returning early does not stop the others.
	select {
	case err := <-done:
		t.Fatalf("runTasks returned before cancel: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runTasks() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runTasks did not return after cancel")
	}
	if stopped.Load() != 2 {
		t.Errorf("stopped = %d, want 2", stopped.Load())
	}
}

