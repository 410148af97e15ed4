// Package sanitizer normalises channel identifiers and free text before they
// reach the conversation or storage.
//
// All functions are idempotent and never return errors: input that cannot be
// normalised comes back as an empty string.
//
// Normalization includes:
//   - Phone numbers: E.164 for tenant channel numbers, bare digits for customer ids
//   - Free text: collapse whitespace, trim leading/trailing spaces
//   - Match keys: lowercase with accents folded, so "Miércoles" matches "miercoles"
package sanitizer
