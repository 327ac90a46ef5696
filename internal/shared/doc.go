// Package shared holds helpers used across the growthdash packages.
//
// The testutil subpackage provides in-memory workbook fixtures built with
// excelize and a slog handler that captures records for assertions:
//
//	buf := testutil.SampleWorkbook(t)
//	logger, logs := testutil.NewTestLogger(t)
//
// It must only be imported from tests.
package shared
