// Package app maps parsed CLI commands onto the daemon and its IPC clients.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/voxboard/internal/audio"
	"github.com/rbright/voxboard/internal/cli"
	"github.com/rbright/voxboard/internal/config"
	"github.com/rbright/voxboard/internal/doctor"
	"github.com/rbright/voxboard/internal/ipc"
	"github.com/rbright/voxboard/internal/logging"
	"github.com/rbright/voxboard/internal/version"
)

const (
	forwardTimeout = 2 * time.Second
	acquireProbe   = 180 * time.Millisecond
	acquireRetries = 8
)

var errNoDaemon = errors.New("no running voxboard daemon")

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("voxboard"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("voxboard"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logOpts := logging.Options{Debug: parsed.Debug}
	if parsed.Command == cli.CommandRun {
		// The daemon reports its own warnings on the terminal.
		logOpts.Console = r.Stderr
	}
	logRuntime, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		// run mirrors warnings through the console logger; forwarding
		// commands only log them.
		if parsed.Command == cli.CommandDoctor {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, parsed, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandSay, cli.CommandClick, cli.CommandFlip, cli.CommandView, cli.CommandBoard, cli.CommandFeed:
		return r.forwardOrFail(ctx, string(parsed.Command), parsed.Args)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: acquireProbe,
		Retries:      acquireRetries,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	opts := daemonOptions{Watch: true}
	if parsed.Stdin {
		opts.Stdin = r.Stdin
		if opts.Stdin == nil {
			opts.Stdin = os.Stdin
		}
	}

	d, err := newDaemon(ctx, cfg, opts, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}

	logger.Info("daemon started", "socket", socketPath, "stdin", parsed.Stdin)
	if err := d.run(ctx, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		kind := "input"
		if device.Monitor {
			kind = "monitor"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | kind=%s | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			kind,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status", nil)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintf(r.Stdout, "%s view=%s\n", resp.State, resp.View)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string, args []string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command, args)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: %v\n", errNoDaemon)
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	} else if resp.View != "" {
		fmt.Fprintf(r.Stdout, "view=%s\n", resp.View)
	}
	return 0
}

// tryForward reports handled=false when no daemon owns the socket.
func tryForward(ctx context.Context, socketPath string, command string, args []string) (ipc.Response, bool, error) {
	alive, err := ipc.Probe(ctx, socketPath, forwardTimeout)
	if err != nil {
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
	}
	if !alive {
		return ipc.Response{}, false, nil
	}

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command, Args: args}, forwardTimeout)
	if err != nil {
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
	}
	if !resp.OK {
		return resp, true, errors.New(resp.Error)
	}
	return resp, true, nil
}
