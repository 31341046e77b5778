// Package logger builds the zap logger shared by the server and the CLI.
//
// Level and encoding come from the [log] config section. Debug uses zap's
// development preset; every other level uses the production preset. The
// console encoding colours levels and drops stack traces, which keeps CLI
// output readable.
//
// Two helpers attach correlation fields:
//   - WithRayID adds the request's ray_id, set by the rayid middleware.
//   - ForSession adds session_id and scope, so lines written during a
//     restore or a Scopus sync line up with that session's live log.
//
// Usage:
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	logger.WithRayID(log, c).Error("Handler failed", zap.Error(err))
package logger
