// Package doctor runs runtime readiness diagnostics for config, tools, audio, and health.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/voxboard/internal/audio"
	"github.com/rbright/voxboard/internal/config"
	"github.com/rbright/voxboard/internal/health"
	"github.com/rbright/voxboard/internal/hypr"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, checkConfig(cfg))

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir set", "XDG_RUNTIME_DIR is empty; the daemon socket falls back to /tmp"))

	checks = append(checks, checkRecognizer(cfg.Config.Recognizer.Command))
	checks = append(checks, checkCommand(cfg.Config.Speech.Command.Argv, "speech.command"))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))

	if cfg.Config.Haptic.Enable && cfg.Config.Haptic.Backend == "pulse" {
		checks = append(checks, checkDefaultSink(ctx))
	}
	if cfg.Config.Indicator.Enable && cfg.Config.Indicator.Backend == "hypr" {
		checks = append(checks, checkHypr())
	}
	if strings.TrimSpace(cfg.Config.Health.Address) != "" {
		checks = append(checks, checkHealth(ctx, cfg.Config.Health.Address))
	}

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkRecognizer fails when no recognizer is configured; `run --stdin` still works then.
func checkRecognizer(command config.CommandConfig) Check {
	if len(command.Argv) == 0 {
		return Check{Name: "recognizer.command", Pass: false, Message: "not set; only `run --stdin` can play"}
	}
	return checkCommand(command.Argv, "recognizer.command")
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Recognizer.Input, cfg.Recognizer.Fallback)
	if err != nil {
		return Check{Name: "audio.source", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.source", Pass: true, Message: message}
}

// checkDefaultSink confirms the rumble backend has somewhere to play.
func checkDefaultSink(ctx context.Context) Check {
	sink, err := audio.DefaultSink(ctx)
	if err != nil {
		return Check{Name: "audio.sink", Pass: false, Message: err.Error()}
	}
	return Check{Name: "audio.sink", Pass: true, Message: fmt.Sprintf("default sink %q", sink)}
}

func checkHypr() Check {
	if err := hypr.Available(); err != nil {
		return Check{Name: "indicator.hypr", Pass: false, Message: err.Error()}
	}
	return Check{Name: "indicator.hypr", Pass: true, Message: "Hyprland session detected"}
}

// checkHealth probes a running daemon's health endpoint.
func checkHealth(ctx context.Context, address string) Check {
	status, err := health.Probe(ctx, address, probeTimeout)
	if err != nil {
		return Check{Name: "health", Pass: false, Message: err.Error()}
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "health", Pass: false, Message: fmt.Sprintf("%s at %s", status, address)}
	}
	return Check{Name: "health", Pass: true, Message: fmt.Sprintf("serving at %s", address)}
}
