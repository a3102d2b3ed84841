// Package validation implements field-rule validation, dangerous-pattern
// screening, and sanitization for request parameters.
//
// Two entry points exist:
//
//   - ValidateParams applies a merged rule table (built-in + custom) to a
//     parameter map and accumulates every failure instead of stopping at
//     the first, returning all field errors plus the sanitized values.
//   - Validate applies go-playground struct-tag validation to typed
//     request/config structs.
//
// String values are screened against SQL-injection and XSS patterns
// before any other rule runs; clean strings are HTML-entity escaped.
package validation
