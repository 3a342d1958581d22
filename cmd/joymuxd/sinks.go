package main

import (
	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/output"
)

// The daemon ships with logging sinks: every output write is recorded but
// none reaches a real device. Platform drivers implement the same
// interfaces and replace these at construction.

type logVJoy struct {
	log *zap.Logger

	axes map[[2]int]float64
}

func newLogVJoy(log *zap.Logger) *logVJoy {
	return &logVJoy{log: log.Named("vjoy"), axes: make(map[[2]int]float64)}
}

func (v *logVJoy) SetAxis(device output.VJoyDeviceID, axis int, value float64) error {
	v.axes[[2]int{int(device), axis}] = value
	v.log.Debug("set axis", zap.Int("device", int(device)), zap.Int("axis", axis), zap.Float64("value", value))
	return nil
}

func (v *logVJoy) AxisValue(device output.VJoyDeviceID, axis int) (float64, error) {
	return v.axes[[2]int{int(device), axis}], nil
}

func (v *logVJoy) SetButton(device output.VJoyDeviceID, button int, pressed bool) error {
	v.log.Debug("set button", zap.Int("device", int(device)), zap.Int("button", button), zap.Bool("pressed", pressed))
	return nil
}

func (v *logVJoy) SetHat(device output.VJoyDeviceID, hat int, direction input.HatDirection) error {
	v.log.Debug("set hat", zap.Int("device", int(device)), zap.Int("hat", hat), zap.Stringer("direction", direction))
	return nil
}

type logKeyboard struct {
	log *zap.Logger
}

func newLogKeyboard(log *zap.Logger) *logKeyboard {
	return &logKeyboard{log: log.Named("keyboard")}
}

func (k *logKeyboard) Press(key output.KeyID) error {
	k.log.Debug("key press", zap.Int("scan", key.ScanCode), zap.Bool("extended", key.Extended))
	return nil
}

func (k *logKeyboard) Release(key output.KeyID) error {
	k.log.Debug("key release", zap.Int("scan", key.ScanCode), zap.Bool("extended", key.Extended))
	return nil
}

type logMouse struct {
	log *zap.Logger
}

func newLogMouse(log *zap.Logger) *logMouse {
	return &logMouse{log: log.Named("mouse")}
}

func (m *logMouse) Press(button output.MouseButton) error {
	m.log.Debug("mouse press", zap.Stringer("button", button))
	return nil
}

func (m *logMouse) Release(button output.MouseButton) error {
	m.log.Debug("mouse release", zap.Stringer("button", button))
	return nil
}

func (m *logMouse) Wheel(ticks int, horizontal bool) error {
	m.log.Debug("mouse wheel", zap.Int("ticks", ticks), zap.Bool("horizontal", horizontal))
	return nil
}

func (m *logMouse) Move(dx, dy int) error {
	m.log.Debug("mouse move", zap.Int("dx", dx), zap.Int("dy", dy))
	return nil
}

type logSpeech struct {
	log *zap.Logger
}

func newLogSpeech(log *zap.Logger) *logSpeech {
	return &logSpeech{log: log.Named("speech")}
}

func (s *logSpeech) Say(text string) error {
	s.log.Info("say", zap.String("text", text))
	return nil
}
