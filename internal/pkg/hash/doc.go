// Package hash provides one-way hashing: a keyed HMAC for short secrets such
// as OTP codes, and bcrypt for passwords. Only the hash is stored;
// verification recomputes it and compares in constant time.
package hash
