package recognizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// ProcessConfig describes an external streaming recognizer command.
type ProcessConfig struct {
	Argv     []string
	Device   string
	Language string
}

// Process runs a streaming recognizer command and reads one result per stdout line.
// Process exit is reported as the end of the recognition run.
type Process struct {
	cfg    ProcessConfig
	logger *slog.Logger

	mu          sync.Mutex
	events      Events
	initialized bool
	running     bool
	cancel      context.CancelFunc
	stopping    bool
}

// NewProcess constructs a process-backed recognizer.
func NewProcess(cfg ProcessConfig, logger *slog.Logger) *Process {
	return &Process{cfg: cfg, logger: logger}
}

// Initialize verifies the recognizer binary is runnable and installs callbacks.
func (p *Process) Initialize(events Events) bool {
	if len(p.cfg.Argv) == 0 {
		return false
	}
	if _, err := exec.LookPath(p.cfg.Argv[0]); err != nil {
		p.logWarn("recognizer binary not found", "binary", p.cfg.Argv[0], "error", err.Error())
		return false
	}

	p.mu.Lock()
	p.events = events
	p.initialized = true
	p.mu.Unlock()
	return true
}

// Start launches one recognition run.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}
	if p.running {
		return ErrAlreadyRunning
	}

	argv := expandArgv(p.cfg.Argv, p.cfg.Device, p.cfg.Language)
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("open recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recognizer %s: %w", argv[0], err)
	}

	p.running = true
	p.stopping = false
	p.cancel = cancel
	go p.readLoop(cmd, stdout, p.events)
	return nil
}

// Stop terminates the active run. The run still reports OnEnd when the process exits.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.cancel == nil {
		return nil
	}
	p.stopping = true
	p.cancel()
	return nil
}

// readLoop owns all event emission for one run.
func (p *Process) readLoop(cmd *exec.Cmd, stdout io.Reader, events Events) {
	events.start()

	sawError := false
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if line.err != "" {
			sawError = true
		}
		emitLine(events, line)
	}

	waitErr := cmd.Wait()

	p.mu.Lock()
	stopping := p.stopping
	if p.cancel != nil {
		p.cancel()
	}
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if waitErr != nil && !stopping && !sawError {
		p.logWarn("recognizer exited with error", "error", waitErr.Error())
		events.fail(ErrorAborted)
	}
	events.end()
}

// expandArgv substitutes {device} and {lang} placeholders.
func expandArgv(argv []string, device string, language string) []string {
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		arg = strings.ReplaceAll(arg, "{device}", device)
		arg = strings.ReplaceAll(arg, "{lang}", language)
		out = append(out, arg)
	}
	return out
}

func (p *Process) logWarn(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, args...)
}
