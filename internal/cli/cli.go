// Package cli parses voxboard command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandSay     Command = "say"
	CommandClick   Command = "click"
	CommandFlip    Command = "flip"
	CommandView    Command = "view"
	CommandStatus  Command = "status"
	CommandBoard   Command = "board"
	CommandFeed    Command = "feed"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// arity is the number of positional arguments a command takes; -1 means one or more.
var arity = map[Command]int{
	CommandRun:     0,
	CommandSay:     -1,
	CommandClick:   1,
	CommandFlip:    1,
	CommandView:    1,
	CommandStatus:  0,
	CommandBoard:   0,
	CommandFeed:    0,
	CommandDevices: 0,
	CommandDoctor:  0,
	CommandVersion: 0,
	CommandHelp:    0,
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
	// Stdin reads transcripts from standard input instead of the recognizer command.
	Stdin bool
	Debug bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			return parsed, nil
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := arity[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if err := parseCommandArgs(&parsed, args[i+1:]); err != nil {
				return Parsed{}, err
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func parseCommandArgs(parsed *Parsed, rest []string) error {
	if parsed.Command == CommandRun {
		for _, arg := range rest {
			switch arg {
			case "--stdin":
				parsed.Stdin = true
			case "--debug":
				parsed.Debug = true
			default:
				return fmt.Errorf("unexpected argument for run: %s", arg)
			}
		}
		return nil
	}

	want := arity[parsed.Command]
	switch {
	case want == -1 && len(rest) == 0:
		return fmt.Errorf("%s requires text", parsed.Command)
	case want >= 0 && len(rest) != want:
		if want == 0 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		return fmt.Errorf("%s requires exactly %d argument", parsed.Command, want)
	}

	if parsed.Command == CommandFlip {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return fmt.Errorf("flip requires a card number, got %q", rest[0])
		}
	}
	if parsed.Command == CommandSay {
		parsed.Args = []string{strings.Join(rest, " ")}
		return nil
	}
	parsed.Args = append([]string(nil), rest...)
	return nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  run [--stdin] [--debug]  Start the voice session daemon (--stdin reads transcripts from stdin)
  say TEXT                 Inject TEXT as a final transcript into the running daemon
  click SQUARE             Click a chess square (e.g. e2) in the running daemon
  flip N                   Flip memory card N in the running daemon
  view NAME                Switch view: home, games, chess, memory, settings
  status                   Print session state and current view
  board                    Print the current chess or memory board
  feed                     Print recently recognized text
  devices                  List available input devices
  doctor                   Run configuration and environment checks
  version                  Print version information
  help                     Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/voxboard/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
