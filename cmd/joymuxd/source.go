package main

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/input"
)

var (
	errFieldCount  = errors.New("expected 4 fields")
	errUnknownKind = errors.New("unknown event kind")
)

// stdinSource reads events from a line-based text stream. It is the
// headless stand-in for an OS device listener: one event per line,
// "<kind> <device-guid> <identifier> <value>".
type stdinSource struct {
	events chan input.Event
}

func newStdinSource(r io.Reader, log *zap.Logger) *stdinSource {
	s := &stdinSource{events: make(chan input.Event, 64)}

	go func() {
		defer close(s.events)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ev, err := parseEventLine(line)
			if err != nil {
				log.Warn("ignoring malformed event line", zap.String("line", line), zap.Error(err))
				continue
			}
			s.events <- ev
		}
	}()

	return s
}

// Events implements runtime.Source.
func (s *stdinSource) Events() <-chan input.Event {
	return s.events
}

func parseEventLine(line string) (input.Event, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return input.Event{}, errFieldCount
	}

	device, err := uuid.Parse(fields[1])
	if err != nil {
		return input.Event{}, err
	}
	identifier, err := strconv.Atoi(fields[2])
	if err != nil {
		return input.Event{}, err
	}

	switch fields[0] {
	case "button":
		pressed := fields[3] == "1" || fields[3] == "true"
		return input.NewButtonEvent(device, identifier, pressed), nil

	case "axis":
		value, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return input.Event{}, err
		}
		return input.NewAxisEvent(device, identifier, value), nil

	case "hat":
		direction, err := input.ParseHatDirection(fields[3])
		if err != nil {
			return input.Event{}, err
		}
		return input.NewHatEvent(device, identifier, direction), nil

	case "key":
		pressed := fields[3] == "1" || fields[3] == "true"
		return input.NewKeyEvent(device, identifier, pressed), nil

	default:
		return input.Event{}, errUnknownKind
	}
}
