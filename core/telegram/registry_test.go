package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/telegram/commands"
)

func TestRegistryCallbackPrefixMatching(t *testing.T) {
	reg := NewRegistry()
	var hit string
	prefixed := func(tele.Context) error { hit = "prefix"; return nil }
	exact := func(tele.Context) error { hit = "exact"; return nil }

	if err := reg.RegisterCallbackPrefix("role_", prefixed); err != nil {
		t.Fatalf("register prefix: %v", err)
	}
	if err := reg.RegisterCallback("role_admin", exact); err != nil {
		t.Fatalf("register exact: %v", err)
	}

	if _, ok := reg.GetCallback("role_user"); !ok {
		t.Fatal("prefix match must resolve role_user")
	}
	if _, ok := reg.GetCallback("unknown"); ok {
		t.Fatal("unrelated key must not resolve")
	}

	// Exact registrations win over prefix matches.
	h, ok := reg.GetCallback("role_admin")
	if !ok {
		t.Fatal("exact key must resolve")
	}
	if err := h(nil); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if hit != "exact" {
		t.Fatalf("resolved %q, want the exact handler", hit)
	}
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	reg := NewRegistry()
	var hit string
	short := func(tele.Context) error { hit = "short"; return nil }
	long := func(tele.Context) error { hit = "long"; return nil }

	if err := reg.RegisterCallbackPrefix("del_", short); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallbackPrefix("del_user_", long); err != nil {
		t.Fatalf("register: %v", err)
	}

	h, ok := reg.GetCallback("del_user_pick")
	if !ok {
		t.Fatal("prefix must resolve")
	}
	if err := h(nil); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if hit != "long" {
		t.Fatalf("resolved %q, want the longest prefix", hit)
	}
}

func TestRegistryCommandAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     func(tele.Context) error { return nil },
		Description: "Admin panel",
		AdminOnly:   true,
		Aliases:     []string{"panel"},
	})

	if _, _, ok := reg.LookupCommand("/panel"); !ok {
		t.Fatal("alias lookup must resolve")
	}
	if key, _, ok := reg.LookupCommand("admin"); !ok || key != "/admin" {
		t.Fatalf("lookup = %q/%v", key, ok)
	}

	if list := reg.ListCommands(true); len(list) != 0 {
		t.Fatalf("admin-only command must be hidden from the menu, got %v", list)
	}
}
