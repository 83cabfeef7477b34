package middleware

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	upd    tele.Update
	store  map[string]any
	sent   []any
}

func newStubContext(userID int64) *stubContext {
	return &stubContext{
		sender: &tele.User{ID: userID},
		chat:   &tele.Chat{ID: userID},
		upd:    tele.Update{ID: 1},
		store:  make(map[string]any),
	}
}

func (s *stubContext) Sender() *tele.User  { return s.sender }
func (s *stubContext) Chat() *tele.Chat    { return s.chat }
func (s *stubContext) Update() tele.Update { return s.upd }
func (s *stubContext) Get(k string) any    { return s.store[k] }
func (s *stubContext) Set(k string, v any) { s.store[k] = v }
func (s *stubContext) Send(what interface{}, _ ...interface{}) error {
	s.sent = append(s.sent, what)
	return nil
}

type stubResolver struct {
	role       string
	registered bool
	err        error
}

func (r stubResolver) Resolve(_ context.Context, _ int64) (string, bool, error) {
	return r.role, r.registered, r.err
}

func TestAuthDeniesUnregistered(t *testing.T) {
	called := false
	notified := false
	mw := Auth(AuthOptions{
		Resolver: stubResolver{registered: false},
		OnUnregistered: func(c tele.Context) error {
			notified = true
			return nil
		},
	})
	h := mw(func(c tele.Context) error {
		called = true
		return nil
	})
	if err := h(newStubContext(100)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if called {
		t.Fatal("handler must not run for unregistered sender")
	}
	if !notified {
		t.Fatal("unregistered sender must receive the notice")
	}
}

func TestAuthFailsClosedOnResolverError(t *testing.T) {
	called := false
	notified := false
	mw := Auth(AuthOptions{
		Resolver: stubResolver{err: errors.New("db down")},
		OnUnregistered: func(c tele.Context) error {
			notified = true
			return nil
		},
	})
	h := mw(func(c tele.Context) error {
		called = true
		return nil
	})
	if err := h(newStubContext(100)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if called {
		t.Fatal("handler must not run when the resolver fails")
	}
	if notified {
		t.Fatal("resolver failure must deny silently, not claim the user is unregistered")
	}
}

func TestAuthStoresRole(t *testing.T) {
	mw := Auth(AuthOptions{Resolver: stubResolver{role: "admin", registered: true}})
	var got string
	h := mw(func(c tele.Context) error {
		got, _ = RoleFrom(c)
		return nil
	})
	if err := h(newStubContext(7)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "admin" {
		t.Fatalf("role = %q, want admin", got)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		allowed []string
		want    bool
	}{
		{"admin allowed", "admin", []string{"admin"}, true},
		{"user allowed when listed", "user", []string{"admin", "user"}, true},
		{"user denied", "user", []string{"admin"}, false},
		{"missing role denied", "", []string{"admin"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newStubContext(5)
			if tc.role != "" {
				c.Set("auth_role", tc.role)
			}
			ran := false
			denied := false
			mw := RequireRole(func(tele.Context) error {
				denied = true
				return nil
			}, tc.allowed...)
			h := mw(func(tele.Context) error {
				ran = true
				return nil
			})
			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if ran != tc.want {
				t.Fatalf("ran = %v, want %v", ran, tc.want)
			}
			if denied == tc.want {
				t.Fatalf("denied = %v, want %v", denied, !tc.want)
			}
		})
	}
}
