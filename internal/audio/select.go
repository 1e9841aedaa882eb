package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errNoDefaultSource = errors.New("default audio source is unavailable")

// Selection is the source handed to the recognizer, plus a warning when the
// configured input could not be used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves recognizer.input and recognizer.fallback against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// preference is a normalized device search term; the zero value means the
// server default.
type preference string

func parsePreference(raw string) preference {
	term := strings.ToLower(strings.TrimSpace(raw))
	if term == "default" {
		return ""
	}
	return preference(term)
}

func (p preference) isDefault() bool { return p == "" }

// resolve finds the device a preference names. An exact id wins over a
// substring match, and monitor sources only match by exact id.
func (p preference) resolve(devices []Device) (*Device, error) {
	if p.isDefault() {
		for i := range devices {
			if devices[i].Default {
				return &devices[i], nil
			}
		}
		return nil, errNoDefaultSource
	}

	for i := range devices {
		if strings.ToLower(devices[i].ID) == string(p) {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if !devices[i].Monitor && deviceMatches(devices[i], string(p)) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no device matches %q", string(p))
}

// unusable names why a device cannot feed the recognizer, or "" when it can.
func unusable(d *Device) string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	default:
		return ""
	}
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primaryPref := parsePreference(input)
	primary, err := primaryPref.resolve(devices)
	if err != nil {
		if primaryPref.isDefault() {
			return Selection{}, err
		}
		return Selection{}, fmt.Errorf("recognizer.input %q did not match any device", string(primaryPref))
	}

	reason := unusable(primary)
	if reason == "" {
		return Selection{Device: *primary}, nil
	}

	fallbackPref := parsePreference(fallback)
	alternate, err := fallbackPref.resolve(devices)
	if err != nil {
		if fallbackPref.isDefault() {
			return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
		}
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, string(fallbackPref))
	}
	if why := unusable(alternate); why != "" {
		if why == "unavailable" {
			why = "not available"
		}
		return Selection{}, fmt.Errorf("recognizer fallback device %q is %s", alternate.ID, why)
	}

	return Selection{
		Device:   *alternate,
		Warning:  fmt.Sprintf("recognizer.input %q is %s; falling back to %q", primary.ID, reason, alternate.ID),
		Fallback: primary.ID != alternate.ID,
	}, nil
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}
