package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

type cbContext struct {
	tele.Context
	cb *tele.Callback
}

func (c *cbContext) Callback() *tele.Callback { return c.cb }

func TestParseCallbackDataRaw(t *testing.T) {
	cb := &tele.Callback{Data: "\fdel_user_pick|42"}
	unique, payload := ParseCallbackData(cb)
	if unique != "del_user_pick" {
		t.Fatalf("unique = %q", unique)
	}
	if payload != "42" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestParseCallbackDataNoPayload(t *testing.T) {
	unique, payload := ParseCallbackData(&tele.Callback{Data: "\fclose_admin"})
	if unique != "close_admin" || payload != "" {
		t.Fatalf("got %q/%q", unique, payload)
	}
}

func TestCallbackPayloadPreStripped(t *testing.T) {
	// Framework-matched callbacks carry the bare payload in Data.
	c := &cbContext{cb: &tele.Callback{Unique: "del_user_confirm", Data: "7"}}
	if got := CallbackPayload(c); got != "7" {
		t.Fatalf("payload = %q", got)
	}
	if got := CallbackKey(c); got != "del_user_confirm" {
		t.Fatalf("key = %q", got)
	}
}

func TestPayloadInt64(t *testing.T) {
	c := &cbContext{cb: &tele.Callback{Data: "\fdel_player_confirm|1099"}}
	id, err := PayloadInt64(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1099 {
		t.Fatalf("id = %d", id)
	}
}
