package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/voxboard/internal/audio"
	"github.com/rbright/voxboard/internal/bus"
	"github.com/rbright/voxboard/internal/chess"
	"github.com/rbright/voxboard/internal/clock"
	"github.com/rbright/voxboard/internal/config"
	"github.com/rbright/voxboard/internal/debugfeed"
	"github.com/rbright/voxboard/internal/fsm"
	"github.com/rbright/voxboard/internal/haptic"
	"github.com/rbright/voxboard/internal/health"
	"github.com/rbright/voxboard/internal/indicator"
	"github.com/rbright/voxboard/internal/ipc"
	"github.com/rbright/voxboard/internal/memory"
	"github.com/rbright/voxboard/internal/recognizer"
	"github.com/rbright/voxboard/internal/session"
	"github.com/rbright/voxboard/internal/settings"
	"github.com/rbright/voxboard/internal/speech"
	"github.com/rbright/voxboard/internal/transcript"
	"github.com/rbright/voxboard/internal/views"
)

const (
	drainPoll      = 50 * time.Millisecond
	ipcReadTimeout = 2 * time.Second
)

var (
	errNoBoard       = errors.New("no board in this view")
	errUnknownIPC    = errors.New("unknown command")
	errMissingArg    = errors.New("missing argument")
	errEmptySay      = errors.New("nothing to say")
	errWrongView     = errors.New("command not available in this view")
	errInvalidSquare = errors.New("invalid square")
)

// daemonOptions override the host-facing collaborators of a daemon.
type daemonOptions struct {
	// Stdin, when set, replaces the recognizer command with one transcript per line.
	Stdin         io.Reader
	Recognizer    recognizer.Recognizer
	SpeechBackend speech.Backend
	HapticBackend haptic.Backend
	SettingsFs    afero.Fs
	SettingsPath  string
	Scheduler     clock.Scheduler
	// Watch enables the settings file watcher.
	Watch bool
}

// daemon is one running voxboard process: the session, the views, and every output.
type daemon struct {
	cfg    config.Config
	logger *slog.Logger

	speech    *speech.Port
	haptics   *haptic.Port
	bus       *bus.Bus
	feed      *debugfeed.Feed
	settings  *settings.Controller
	nav       *views.Navigator
	session   *session.Manager
	lines     *recognizer.Lines
	indicator *indicator.HyprNotify
	health    *health.Server

	settingsPath string
	watch        bool
	unsubFeed    debugfeed.Unsubscribe
}

func newDaemon(ctx context.Context, cfg config.Config, opts daemonOptions, logger *slog.Logger) (*daemon, error) {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = clock.Real{}
	}

	d := &daemon{cfg: cfg, logger: logger, watch: opts.Watch}

	speechBackend := opts.SpeechBackend
	if speechBackend == nil && len(cfg.Speech.Command.Argv) > 0 {
		speechBackend = speech.NewSpdSay(cfg.Speech.Command.Argv[0])
	}
	d.speech = speech.New(speechBackend, logger)

	hapticBackend := opts.HapticBackend
	if hapticBackend == nil {
		hapticBackend = haptic.None{}
		if cfg.Haptic.Enable && cfg.Haptic.Backend == "pulse" {
			hapticBackend = haptic.NewRumble()
		}
	}
	d.haptics = haptic.New(hapticBackend, logger)

	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = cfg.SettingsPath
	}
	if settingsPath == "" {
		resolved, err := settings.DefaultPath()
		if err != nil {
			d.speech.Close()
			return nil, err
		}
		settingsPath = resolved
	}
	d.settingsPath = settingsPath
	d.settings = settings.NewController(settings.NewStore(opts.SettingsFs, settingsPath), d.speech, d.haptics, logger)
	defaults := settings.Defaults()
	defaults.SpeechRate = cfg.Speech.Rate
	d.settings.SetDefaults(defaults)
	if err := d.settings.Load(); err != nil {
		logger.Warn("load settings failed; using defaults", "path", settingsPath, "error", err.Error())
	}

	d.bus = bus.New(logger)
	d.feed = debugfeed.New(scheduler)
	d.unsubFeed = d.feed.Subscribe(func(entries []debugfeed.Entry) {
		logger.Debug("recognized text", "visible", len(entries))
	})

	memoryCfg := memory.Config{
		MatchDelay:    time.Duration(cfg.Memory.MatchDelayMS) * time.Millisecond,
		MismatchDelay: time.Duration(cfg.Memory.MismatchDelayMS) * time.Millisecond,
		CompleteDelay: time.Duration(cfg.Memory.CompleteDelayMS) * time.Millisecond,
	}
	d.nav = views.New(views.Deps{
		Bus:     d.bus,
		Speaker: d.speech,
		Haptics: d.haptics,
		NewChess: func() *chess.Game {
			return chess.New(d.speech, d.haptics, logger)
		},
		NewMemory: func() *memory.Game {
			return memory.New(memoryCfg, memory.Deps{Speaker: d.speech, Haptics: d.haptics, Scheduler: scheduler, Logger: logger})
		},
		Settings: d.settings,
		Logger:   logger,
	})

	if cfg.Indicator.Enable {
		d.indicator = indicator.NewHyprNotify(cfg.Indicator, logger)
	}
	if strings.TrimSpace(cfg.Health.Address) != "" {
		d.health = health.NewServer(logger)
	}

	rec := opts.Recognizer
	if rec == nil {
		rec = d.buildRecognizer(ctx, opts.Stdin)
	}
	d.session = session.NewManager(session.Config{
		EndRetryDelay: cfg.Recognizer.EndRetry(),
		AbortDelay:    cfg.Recognizer.AbortRetry(),
		ErrorDelay:    cfg.Recognizer.ErrorRetry(),
	}, session.Deps{
		Recognizer: rec,
		Dispatcher: d.nav,
		Feed:       d.feed,
		Scheduler:  scheduler,
		Logger:     logger,
		Observer:   d.observe,
	})

	return d, nil
}

// buildRecognizer picks stdin lines, the configured command, or nothing.
func (d *daemon) buildRecognizer(ctx context.Context, stdin io.Reader) recognizer.Recognizer {
	if stdin != nil {
		d.lines = recognizer.NewLines(stdin)
		return d.lines
	}

	rc := d.cfg.Recognizer
	if len(rc.Command.Argv) == 0 {
		return recognizer.Unavailable{}
	}

	device := rc.Input
	selection, err := audio.SelectDevice(ctx, rc.Input, rc.Fallback)
	if err != nil {
		d.logger.Warn("audio source selection failed; passing input through", "input", rc.Input, "error", err.Error())
	} else {
		device = selection.Device.ID
		if selection.Warning != "" {
			d.logger.Warn("audio source fallback", "warning", selection.Warning)
		}
	}

	return recognizer.NewProcess(recognizer.ProcessConfig{
		Argv:     rc.Command.Argv,
		Device:   device,
		Language: rc.Language,
	}, d.logger)
}

func (d *daemon) observe(state fsm.State) {
	if d.indicator != nil {
		d.indicator.Observe(state)
	}
	if d.health != nil {
		d.health.Observe(state)
	}
	d.logger.Debug("session state", "state", string(state))
}

// run serves IPC and the background workers until ctx is cancelled, or until
// stdin input is exhausted and everything queued has been spoken.
func (d *daemon) run(ctx context.Context, listener net.Listener) error {
	var healthListener net.Listener
	if d.health != nil {
		var err error
		healthListener, err = health.Listen(d.cfg.Health.Address)
		if err != nil {
			d.shutdown()
			return err
		}
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	if listener != nil {
		server := &ipc.Server{Handler: d, Logger: d.logger, ReadTimeout: ipcReadTimeout}
		g.Go(func() error { return server.Serve(gctx, listener) })
	}
	if healthListener != nil {
		g.Go(func() error { return d.health.Serve(gctx, healthListener) })
	}
	if d.indicator != nil {
		g.Go(func() error { return d.indicator.Run(gctx) })
	}
	if d.watch {
		watcher, err := settings.NewWatcher(d.settingsPath, d.settings.Reload, d.logger)
		if err != nil {
			d.logger.Warn("settings watcher unavailable", "error", err.Error())
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	d.nav.Start()
	if d.session.Initialize() {
		d.session.Start()
	} else {
		d.logger.Warn("voice input unavailable; use `voxboard say` or `run --stdin`")
	}

	if d.lines != nil {
		g.Go(func() error {
			select {
			case <-d.lines.Done():
				d.drain(gctx)
				stop()
			case <-gctx.Done():
			}
			return nil
		})
	}

	err := g.Wait()
	d.shutdown()
	return err
}

// drain waits out pending game timers and queued speech after stdin closes.
func (d *daemon) drain(ctx context.Context) {
	settle := time.Duration(d.cfg.Memory.MismatchDelayMS+d.cfg.Memory.CompleteDelayMS) * time.Millisecond
	select {
	case <-ctx.Done():
		return
	case <-time.After(settle):
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for !d.speech.Idle() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *daemon) shutdown() {
	d.session.Stop()
	d.nav.Close()
	if d.unsubFeed != nil {
		d.unsubFeed()
	}
	d.speech.Close()
	d.haptics.Wait()
}

// Handle serves one CLI request against the running session.
func (d *daemon) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return d.handleStatus()
	case "say":
		return d.handleSay(req.Args)
	case "click":
		return d.handleClick(req.Args)
	case "flip":
		return d.handleFlip(req.Args)
	case "view":
		return d.handleView(req.Args)
	case "board":
		return d.handleBoard()
	case "feed":
		return d.handleFeed()
	default:
		return ipc.Failure(fmt.Errorf("%w: %q", errUnknownIPC, req.Command))
	}
}

type statusData struct {
	RunID     string          `json:"run_id,omitempty"`
	Attempts  int             `json:"attempts"`
	Restarts  int             `json:"restarts"`
	LastError string          `json:"last_error,omitempty"`
	Settings  settings.Values `json:"settings"`
}

func (d *daemon) handleStatus() ipc.Response {
	status := d.session.Status()
	return d.respond(string(status.State), statusData{
		RunID:     status.RunID,
		Attempts:  status.Attempts,
		Restarts:  status.Restarts,
		LastError: status.LastError,
		Settings:  d.settings.Values(),
	})
}

// handleSay injects text as a final transcript, bypassing the recognizer.
func (d *daemon) handleSay(args []string) ipc.Response {
	text := transcript.Normalize(strings.Join(args, " "))
	if text == "" {
		return ipc.Failure(errEmptySay)
	}
	d.feed.Push(text, true)
	categories := d.nav.Dispatch(text)

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	message := "no command matched"
	if len(names) > 0 {
		message = "matched " + strings.Join(names, ", ")
	}
	d.logger.Info("injected transcript", "transcript", text, "categories", names)
	return ipc.Response{OK: true, View: string(d.nav.Current()), Message: message}
}

func (d *daemon) handleClick(args []string) ipc.Response {
	if len(args) != 1 {
		return ipc.Failure(errMissingArg)
	}
	game := d.nav.Chess()
	if game == nil {
		return ipc.Failure(fmt.Errorf("click: %w", errWrongView))
	}
	square, ok := chess.ParseSquare(args[0])
	if !ok {
		return ipc.Failure(fmt.Errorf("%w: %q", errInvalidSquare, args[0]))
	}
	game.Click(square)
	return ipc.Response{OK: true, View: string(views.Chess), Message: game.Render()}
}

func (d *daemon) handleFlip(args []string) ipc.Response {
	if len(args) != 1 {
		return ipc.Failure(errMissingArg)
	}
	game := d.nav.Memory()
	if game == nil {
		return ipc.Failure(fmt.Errorf("flip: %w", errWrongView))
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return ipc.Failure(fmt.Errorf("flip: card number %q: %w", args[0], err))
	}
	if !game.Flip(number - 1) {
		return ipc.Response{OK: true, View: string(views.Memory), Message: "card not flipped\n" + game.Render()}
	}
	return ipc.Response{OK: true, View: string(views.Memory), Message: game.Render()}
}

func (d *daemon) handleView(args []string) ipc.Response {
	if len(args) != 1 {
		return ipc.Failure(errMissingArg)
	}
	name, err := views.ParseName(args[0])
	if err != nil {
		return ipc.Failure(err)
	}
	if err := d.nav.Go(name); err != nil {
		return ipc.Failure(err)
	}
	return ipc.Response{OK: true, View: string(d.nav.Current())}
}

func (d *daemon) handleBoard() ipc.Response {
	if game := d.nav.Chess(); game != nil {
		resp := d.respond("", game.Snapshot())
		resp.Message = game.Render()
		return resp
	}
	if game := d.nav.Memory(); game != nil {
		resp := d.respond("", game.Snapshot())
		resp.Message = game.Render()
		return resp
	}
	return ipc.Failure(fmt.Errorf("%w: %s", errNoBoard, d.nav.Current()))
}

func (d *daemon) handleFeed() ipc.Response {
	entries := d.feed.Entries()
	var b strings.Builder
	for _, entry := range entries {
		kind := "interim"
		if entry.Final {
			kind = "final"
		}
		fmt.Fprintf(&b, "%s %s %s\n", entry.At.Format(time.TimeOnly), kind, entry.Text)
	}
	resp := d.respond("", entries)
	resp.Message = strings.TrimSuffix(b.String(), "\n")
	return resp
}

func (d *daemon) respond(state string, data any) ipc.Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return ipc.Failure(fmt.Errorf("encode response: %w", err))
	}
	return ipc.Response{OK: true, State: state, View: string(d.nav.Current()), Data: raw}
}
