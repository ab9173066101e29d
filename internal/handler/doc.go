// Package handler implements the HTTP API.
//
// DeviceHandler serves the device registry, operator labels and the
// on-demand refresh trigger. SnapshotHandler serves the snapshot history and
// graph export. HealthHandler reports liveness together with the last cycle
// report.
//
// Errors are returned as JSON with an {error, details} body. Repository
// not-found errors map to 404.
//
// Middleware provides panic recovery, CORS and request logging.
package handler
