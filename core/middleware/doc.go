// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation for the /api routes (X-API-Key or Bearer token).
//   - rayid: assigns every request a RayID, stores it in the context and echoes it
//     in the X-Ray-ID response header for tracing.
//   - requestlog: one zap line per request carrying the ray id, status and latency.
//
// These middleware components are registered globally in the start command.
package middleware
