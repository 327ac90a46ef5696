// Package cache holds loaded datasets in memory, addressed by the hash of the
// workbook bytes they were parsed from. Uploading the same file twice yields
// the same dataset ID and parses the workbook once.
package cache
