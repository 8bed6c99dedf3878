// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Expiry, cooldown and attempt windows all read from it,
// and tests drive them with a Frozen clock.
package clock
