// Package http implements the HTTP handlers of the dashboard. Handlers only
// parse requests and format responses; the pipeline runs in the services
// package.
//
// # Pages
//
//	GET  /                                       upload prompt
//	POST /upload                                 multipart upload, redirects to the dataset
//	GET  /datasets/{id}?metric=&sector=          dashboard with three tabs
//	POST /datasets/{id}/remove                   evicts the dataset, redirects to /
//	GET  /datasets/{id}/charts/{view}/{metric}.svg?sector=
//
// A dataset URL whose workbook is no longer cached renders the upload prompt
// with a notice. Filter changes are plain GET requests and rerun the whole
// pipeline.
//
// # JSON API
//
//	POST   /api/datasets
//	GET    /api/datasets/{id}
//	GET    /api/datasets/{id}/companies?metric=&sector=
//	GET    /api/datasets/{id}/sectors?metric=&sector=
//	DELETE /api/datasets/{id}
//
// API errors follow RFC 7807 Problem Details and are rendered by
// errors.ErrorHandler.
package http
