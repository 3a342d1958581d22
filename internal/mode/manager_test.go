package mode

import (
	"errors"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	if err := m.Add("Default", ""); err != nil {
		t.Fatalf("Add(Default) error = %v", err)
	}
	if err := m.Add("Combat", "Default"); err != nil {
		t.Fatalf("Add(Combat) error = %v", err)
	}
	if err := m.Add("Landing", "Default"); err != nil {
		t.Fatalf("Add(Landing) error = %v", err)
	}
	return m
}

func TestAddDuplicate(t *testing.T) {
	m := newTestManager(t)

	err := m.Add("Combat", "")
	if !errors.Is(err, ErrModeExists) {
		t.Errorf("Add duplicate error = %v, want ErrModeExists", err)
	}
}

func TestAddUnknownParent(t *testing.T) {
	m := newTestManager(t)

	err := m.Add("Orbit", "Nonexistent")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Add with unknown parent error = %v, want ErrUnknownMode", err)
	}
}

func TestAncestors(t *testing.T) {
	m := newTestManager(t)
	if err := m.Add("Dogfight", "Combat"); err != nil {
		t.Fatalf("Add(Dogfight) error = %v", err)
	}

	chain := m.Ancestors("Dogfight")
	want := []string{"Combat", "Default"}
	if len(chain) != len(want) {
		t.Fatalf("Ancestors() = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("Ancestors()[%d] = %q, want %q", i, chain[i], want[i])
		}
	}
}

func TestSetParentCycle(t *testing.T) {
	m := newTestManager(t)
	if err := m.Add("Dogfight", "Combat"); err != nil {
		t.Fatalf("Add(Dogfight) error = %v", err)
	}

	if err := m.SetParent("Default", "Dogfight"); !errors.Is(err, ErrCycle) {
		t.Errorf("SetParent creating cycle error = %v, want ErrCycle", err)
	}
	if err := m.SetParent("Combat", "Combat"); !errors.Is(err, ErrCycle) {
		t.Errorf("SetParent to self error = %v, want ErrCycle", err)
	}
}

func TestDeleteReparentsChildren(t *testing.T) {
	m := newTestManager(t)
	if err := m.Add("Dogfight", "Combat"); err != nil {
		t.Fatalf("Add(Dogfight) error = %v", err)
	}

	var deleted, replacement string
	m.OnDelete(func(old, repl string) {
		deleted, replacement = old, repl
	})

	if err := m.Delete("Combat"); err != nil {
		t.Fatalf("Delete(Combat) error = %v", err)
	}

	parent, err := m.Parent("Dogfight")
	if err != nil {
		t.Fatalf("Parent(Dogfight) error = %v", err)
	}
	if parent != "Default" {
		t.Errorf("Dogfight parent after delete = %q, want Default", parent)
	}
	if deleted != "Combat" || replacement != "Default" {
		t.Errorf("delete callback = (%q, %q), want (Combat, Default)", deleted, replacement)
	}
}

func TestDeleteRootUsesFirstRemainingRoot(t *testing.T) {
	m := NewManager()
	_ = m.Add("Beta", "")
	_ = m.Add("Alpha", "")
	_ = m.Add("Child", "Beta")

	var replacement string
	m.OnDelete(func(_, repl string) { replacement = repl })

	if err := m.Delete("Beta"); err != nil {
		t.Fatalf("Delete(Beta) error = %v", err)
	}

	// Child became a root; Alpha is the lexicographically first root.
	if replacement != "Alpha" {
		t.Errorf("replacement = %q, want Alpha", replacement)
	}
	if parent, _ := m.Parent("Child"); parent != "" {
		t.Errorf("Child parent = %q, want root", parent)
	}
}

func TestDeleteLastMode(t *testing.T) {
	m := NewManager()
	_ = m.Add("Only", "")

	if err := m.Delete("Only"); !errors.Is(err, ErrLastMode) {
		t.Errorf("Delete last mode error = %v, want ErrLastMode", err)
	}
}

func TestRenamePropagates(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Combat")

	var old, new string
	m.OnRename(func(o, n string) { old, new = o, n })

	if err := m.Rename("Combat", "Battle"); err != nil {
		t.Fatalf("Rename error = %v", err)
	}

	if old != "Combat" || new != "Battle" {
		t.Errorf("rename callback = (%q, %q), want (Combat, Battle)", old, new)
	}
	if m.Current() != "Battle" {
		t.Errorf("Current() = %q, want Battle", m.Current())
	}
	if m.Has("Combat") {
		t.Error("old name should no longer be registered")
	}
}

func TestFirstMode(t *testing.T) {
	m := NewManager()
	_ = m.Add("Zulu", "")
	_ = m.Add("Alpha", "")
	_ = m.Add("Nested", "Zulu")

	if got := m.FirstMode(); got != "Alpha" {
		t.Errorf("FirstMode() = %q, want Alpha", got)
	}
}

func TestSwitchToPrevious(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Default")

	if err := m.SwitchTo("Combat"); err != nil {
		t.Fatalf("SwitchTo error = %v", err)
	}
	if err := m.SwitchToPrevious(); err != nil {
		t.Fatalf("SwitchToPrevious error = %v", err)
	}
	if m.Current() != "Default" {
		t.Errorf("Current() = %q, want Default", m.Current())
	}
}

func TestSwitchToPreviousWithoutHistory(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Default")

	if err := m.SwitchToPrevious(); !errors.Is(err, ErrNoPrevious) {
		t.Errorf("SwitchToPrevious error = %v, want ErrNoPrevious", err)
	}
}

func TestUnwind(t *testing.T) {
	m := newTestManager(t)
	_ = m.Add("Dogfight", "Combat")
	_ = m.SetInitialMode("Dogfight")

	if err := m.Unwind(); err != nil {
		t.Fatalf("Unwind error = %v", err)
	}
	if m.Current() != "Default" {
		t.Errorf("Current() after Unwind = %q, want Default", m.Current())
	}
}

func TestCycle(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Default")

	list := []string{"Default", "Combat", "Landing"}
	for _, want := range []string{"Combat", "Landing", "Default"} {
		if err := m.Cycle(list); err != nil {
			t.Fatalf("Cycle error = %v", err)
		}
		if m.Current() != want {
			t.Errorf("Current() = %q, want %q", m.Current(), want)
		}
	}
}

func TestCycleFromOutsideList(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Landing")

	if err := m.Cycle([]string{"Default", "Combat"}); err != nil {
		t.Fatalf("Cycle error = %v", err)
	}
	if m.Current() != "Default" {
		t.Errorf("Current() = %q, want Default", m.Current())
	}
}

func TestTemporarySwitch(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Default")

	revert, err := m.TemporarySwitch("Combat")
	if err != nil {
		t.Fatalf("TemporarySwitch error = %v", err)
	}
	if m.Current() != "Combat" {
		t.Errorf("Current() = %q, want Combat", m.Current())
	}

	if err := revert(); err != nil {
		t.Fatalf("revert error = %v", err)
	}
	if m.Current() != "Default" {
		t.Errorf("Current() after revert = %q, want Default", m.Current())
	}
}

func TestOnChangeUnregister(t *testing.T) {
	m := newTestManager(t)
	_ = m.SetInitialMode("Default")

	calls := 0
	unregister := m.OnChange(func(from, to string) { calls++ })

	_ = m.SwitchTo("Combat")
	unregister()
	_ = m.SwitchTo("Landing")

	if calls != 1 {
		t.Errorf("change callback calls = %d, want 1", calls)
	}
}
