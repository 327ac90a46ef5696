// Package validation checks uploaded workbooks and dashboard filter
// parameters. Struct validation uses go-playground/validator with custom
// metric and filename tags; failures are returned as API validation errors.
package validation
