package speech

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// SpdSay speaks through speech-dispatcher's spd-say client.
type SpdSay struct {
	Command string
}

// NewSpdSay returns a backend running command, or spd-say when empty.
func NewSpdSay(command string) SpdSay {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "spd-say"
	}
	return SpdSay{Command: command}
}

func (s SpdSay) Available() bool {
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Say blocks until speech-dispatcher reports the message spoken.
func (s SpdSay) Say(ctx context.Context, u Utterance) error {
	_, err := s.run(ctx, sayArgs(u)...)
	return err
}

// Cancel drops the message being spoken and everything queued by this client.
func (s SpdSay) Cancel(ctx context.Context) error {
	_, err := s.run(ctx, "--cancel")
	return err
}

func (s SpdSay) Voices(ctx context.Context) ([]Voice, error) {
	out, err := s.run(ctx, "--list-synthesis-voices")
	if err != nil {
		return nil, err
	}
	return parseVoices(string(out)), nil
}

func (s SpdSay) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.Command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("%s %v failed: %w", s.Command, args, err)
		}
		return nil, fmt.Errorf("%s %v failed: %w (%s)", s.Command, args, err, trimmed)
	}
	return out, nil
}

func sayArgs(u Utterance) []string {
	args := []string{"--wait", "--rate", strconv.Itoa(SpdRate(u.Rate))}
	if u.Voice != "" {
		args = append(args, "--synthesis-voice", u.Voice)
	}
	return append(args, u.Text)
}

// SpdRate maps a rate multiplier in [0.5, 2] onto speech-dispatcher's [-100, 100],
// with 1 at 0.
func SpdRate(rate float64) int {
	switch {
	case math.IsNaN(rate) || rate == 1:
		return 0
	case rate < 1:
		rate = math.Max(rate, MinRate)
		return int(math.Round((rate - 1) / (1 - MinRate) * 100))
	default:
		rate = math.Min(rate, MaxRate)
		return int(math.Round((rate - 1) / (MaxRate - 1) * 100))
	}
}

// parseVoices reads the NAME LANGUAGE VARIANT table printed by spd-say -L.
func parseVoices(out string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "name") {
			continue
		}
		voice := Voice{Index: len(voices), Name: fields[0]}
		if len(fields) > 1 {
			voice.Language = fields[1]
		}
		if len(fields) > 2 {
			voice.Variant = fields[2]
		}
		voices = append(voices, voice)
	}
	return voices
}
