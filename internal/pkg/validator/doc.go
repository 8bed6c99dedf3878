// Package validator validates request and dependency structs with
// go-playground/validator and renders failures as a field-to-message map
// keyed by JSON field name.
package validator
