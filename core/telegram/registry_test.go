package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("start", Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("expected error for a name without slash")
	}
	if err := reg.RegisterCommand("/start", Command{Handler: noop}); err == nil {
		t.Fatal("expected error for a missing description")
	}
	if err := reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start"}); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}
	if err := reg.RegisterCommand("/start", Command{Handler: noop, Description: "Again"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if got := reg.Commands()["/start"].Description; got != "Start" {
		t.Fatalf("description = %q", got)
	}
}

func TestMenuCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	for name, cmd := range map[string]Command{
		"/start":  {Handler: noop, Description: "Start"},
		"/menu":   {Handler: noop, Description: "Menu"},
		"/admin":  {Handler: noop, Description: "Admin", AdminOnly: true},
		"/secret": {Handler: noop, Description: "Secret", Hidden: true},
	} {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			t.Fatalf("RegisterCommand(%s): %v", name, err)
		}
	}
	got := reg.MenuCommands()
	if len(got) != 2 || got[0].Text != "/menu" || got[1].Text != "/start" {
		t.Fatalf("MenuCommands = %+v", got)
	}
}

func TestCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	for _, key := range []string{"b", "a"} {
		if err := reg.RegisterCallback(key, noop); err != nil {
			t.Fatalf("RegisterCallback(%s): %v", key, err)
		}
	}
	if err := reg.RegisterCallback("a", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, ok := reg.Callback("a"); !ok {
		t.Fatal("callback a not found")
	}
	if _, ok := reg.Callback("c"); ok {
		t.Fatal("unexpected callback c")
	}
	keys := reg.CallbackKeys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("CallbackKeys = %v", keys)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
}
