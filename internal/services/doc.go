// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the pure pipeline in dataprocessing.
//
// DashboardService accepts uploaded workbooks, caches the loaded datasets by
// content hash and reruns the growth, sector aggregation and filter stages for
// every view. Each stage runs under its own span and records its duration.
//
// Errors returned by the service wrap a package sentinel (ErrDatasetNotFound,
// ErrInvalidSelection, ErrInvalidUpload, ErrWorkbookInvalid) together with the
// API or application error the HTTP layer renders:
//
//	summary, err := svc.Upload(ctx, header.Filename, file)
//	if errors.Is(err, services.ErrInvalidUpload) {
//	    // 400, 413 or 415 problem details
//	}
//
// HealthService reports liveness, readiness and version information.
package services
