// Package outputtest provides thread-safe in-memory fakes for the output
// sink interfaces. Tests use them to assert on the exact sequence of writes
// an action chain produced and to inject sink failures.
package outputtest

import (
	"fmt"
	"sync"

	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/output"
)

// VJoy is a fake output.VJoyProxy recording all writes.
type VJoy struct {
	mu sync.Mutex

	axes    map[axisKey]float64
	buttons map[buttonKey]bool
	hats    map[buttonKey]input.HatDirection
	log     []string

	// FailNext causes the next write to fail with ErrWriteRejected.
	failNext bool

	// Unavailable causes every call to fail with ErrDeviceUnavailable.
	unavailable bool
}

type axisKey struct {
	device output.VJoyDeviceID
	axis   int
}

type buttonKey struct {
	device output.VJoyDeviceID
	index  int
}

// NewVJoy creates an empty fake virtual joystick proxy.
func NewVJoy() *VJoy {
	return &VJoy{
		axes:    make(map[axisKey]float64),
		buttons: make(map[buttonKey]bool),
		hats:    make(map[buttonKey]input.HatDirection),
	}
}

// FailNext makes the next write fail.
func (v *VJoy) FailNext() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failNext = true
}

// SetUnavailable makes every subsequent call fail with ErrDeviceUnavailable.
func (v *VJoy) SetUnavailable(unavailable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unavailable = unavailable
}

func (v *VJoy) checkFailure(device output.VJoyDeviceID, op string) error {
	if v.unavailable {
		return output.NewDeviceError(device, op, output.ErrDeviceUnavailable)
	}
	if v.failNext {
		v.failNext = false
		return output.NewDeviceError(device, op, output.ErrWriteRejected)
	}
	return nil
}

// SetAxis implements output.VJoyProxy.
func (v *VJoy) SetAxis(device output.VJoyDeviceID, axis int, value float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkFailure(device, "set-axis"); err != nil {
		return err
	}
	v.axes[axisKey{device, axis}] = value
	v.log = append(v.log, fmt.Sprintf("axis %d.%d=%.4f", device, axis, value))
	return nil
}

// AxisValue implements output.VJoyProxy.
func (v *VJoy) AxisValue(device output.VJoyDeviceID, axis int) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unavailable {
		return 0, output.NewDeviceError(device, "axis-value", output.ErrDeviceUnavailable)
	}
	return v.axes[axisKey{device, axis}], nil
}

// SetButton implements output.VJoyProxy.
func (v *VJoy) SetButton(device output.VJoyDeviceID, button int, pressed bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkFailure(device, "set-button"); err != nil {
		return err
	}
	v.buttons[buttonKey{device, button}] = pressed
	v.log = append(v.log, fmt.Sprintf("button %d.%d=%t", device, button, pressed))
	return nil
}

// SetHat implements output.VJoyProxy.
func (v *VJoy) SetHat(device output.VJoyDeviceID, hat int, direction input.HatDirection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkFailure(device, "set-hat"); err != nil {
		return err
	}
	v.hats[buttonKey{device, hat}] = direction
	v.log = append(v.log, fmt.Sprintf("hat %d.%d=%s", device, hat, direction))
	return nil
}

// Axis returns the last written axis value.
func (v *VJoy) Axis(device output.VJoyDeviceID, axis int) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.axes[axisKey{device, axis}]
}

// SeedAxis sets an axis value without logging, simulating an external
// writer touching the device underneath a ramper.
func (v *VJoy) SeedAxis(device output.VJoyDeviceID, axis int, value float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.axes[axisKey{device, axis}] = value
}

// Button returns the last written button state.
func (v *VJoy) Button(device output.VJoyDeviceID, button int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buttons[buttonKey{device, button}]
}

// Hat returns the last written hat direction.
func (v *VJoy) Hat(device output.VJoyDeviceID, hat int) input.HatDirection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hats[buttonKey{device, hat}]
}

// Log returns a copy of the write log in order.
func (v *VJoy) Log() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.log))
	copy(out, v.log)
	return out
}

// Keyboard is a fake output.Keyboard recording press/release order.
type Keyboard struct {
	mu      sync.Mutex
	pressed map[output.KeyID]bool
	log     []string
}

// NewKeyboard creates an empty fake keyboard sink.
func NewKeyboard() *Keyboard {
	return &Keyboard{pressed: make(map[output.KeyID]bool)}
}

// Press implements output.Keyboard.
func (k *Keyboard) Press(key output.KeyID) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed[key] = true
	k.log = append(k.log, fmt.Sprintf("press %#x", key.ScanCode))
	return nil
}

// Release implements output.Keyboard.
func (k *Keyboard) Release(key output.KeyID) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed[key] = false
	k.log = append(k.log, fmt.Sprintf("release %#x", key.ScanCode))
	return nil
}

// IsPressed returns the current state of a key.
func (k *Keyboard) IsPressed(key output.KeyID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pressed[key]
}

// Log returns a copy of the press/release log in order.
func (k *Keyboard) Log() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.log))
	copy(out, k.log)
	return out
}

// Mouse is a fake output.Mouse accumulating motion and recording clicks.
type Mouse struct {
	mu      sync.Mutex
	pressed map[output.MouseButton]bool
	dx, dy  int
	wheel   int
	log     []string

	// Unavailable causes every call to fail with ErrDeviceUnavailable.
	unavailable bool
}

// NewMouse creates an empty fake mouse sink.
func NewMouse() *Mouse {
	return &Mouse{pressed: make(map[output.MouseButton]bool)}
}

// SetUnavailable makes every subsequent call fail with ErrDeviceUnavailable.
func (m *Mouse) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// Press implements output.Mouse.
func (m *Mouse) Press(button output.MouseButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return output.ErrDeviceUnavailable
	}
	m.pressed[button] = true
	m.log = append(m.log, "press "+button.String())
	return nil
}

// Release implements output.Mouse.
func (m *Mouse) Release(button output.MouseButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return output.ErrDeviceUnavailable
	}
	m.pressed[button] = false
	m.log = append(m.log, "release "+button.String())
	return nil
}

// Wheel implements output.Mouse.
func (m *Mouse) Wheel(ticks int, horizontal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return output.ErrDeviceUnavailable
	}
	m.wheel += ticks
	m.log = append(m.log, fmt.Sprintf("wheel %d h=%t", ticks, horizontal))
	return nil
}

// Move implements output.Mouse.
func (m *Mouse) Move(dx, dy int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return output.ErrDeviceUnavailable
	}
	m.dx += dx
	m.dy += dy
	return nil
}

// IsPressed returns the current state of a button.
func (m *Mouse) IsPressed(button output.MouseButton) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pressed[button]
}

// Motion returns the accumulated relative motion.
func (m *Mouse) Motion() (dx, dy int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dx, m.dy
}

// WheelTicks returns the accumulated wheel ticks.
func (m *Mouse) WheelTicks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wheel
}

// Log returns a copy of the click log in order.
func (m *Mouse) Log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.log))
	copy(out, m.log)
	return out
}

// Speech is a fake output.Speech recording spoken phrases.
type Speech struct {
	mu      sync.Mutex
	phrases []string
}

// NewSpeech creates an empty fake speech sink.
func NewSpeech() *Speech {
	return &Speech{}
}

// Say implements output.Speech.
func (s *Speech) Say(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phrases = append(s.phrases, text)
	return nil
}

// Phrases returns a copy of everything spoken so far.
func (s *Speech) Phrases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.phrases))
	copy(out, s.phrases)
	return out
}
