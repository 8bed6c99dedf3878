// Package mail sends plain-text email.
//
// Senders implement Mail. SMTP delivers through a relay; Log writes the
// envelope (never the body) to slog for environments without a relay.
package mail
