// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions are keyed by conversation (chat + user) so the same user can run
// independent flows in different chats.
package state
