// Package otp generates numeric one-time passcodes for email challenges.
package otp
