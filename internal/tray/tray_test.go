package tray

import "testing"

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("a new tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()
	calls := map[string]int{}
	tr.OnUndo(func() { calls["undo"]++ })
	tr.OnClear(func() { calls["clear"]++ })
	tr.OnSave(func() { calls["save"]++ })
	tr.OnOpen(func() { calls["open"]++ })

	tr.call(func() func() { return tr.onUndo })
	tr.call(func() func() { return tr.onClear })
	tr.call(func() func() { return tr.onSave })
	tr.call(func() func() { return tr.onOpen })
	tr.call(func() func() { return tr.onQuit }) // unset

	for _, name := range []string{"undo", "clear", "save", "open"} {
		if calls[name] != 1 {
			t.Errorf("%s called %d times, want 1", name, calls[name])
		}
	}
}

func TestTray_DisplayBeforeRun(t *testing.T) {
	tr := New()
	// menu items do not exist until Run; updates are dropped
	tr.SetLastGesture("DRAW")
	tr.SetColor("Blue")
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{enabledTitle(true), "● Enabled"},
		{enabledTitle(false), "○ Disabled"},
		{lastGestureTitle(""), "Last: none"},
		{lastGestureTitle("CLEAR"), "Last: CLEAR"},
		{colorTitle(""), "Color: -"},
		{colorTitle("Red"), "Color: Red"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
