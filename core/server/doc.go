// Package server holds the HTTP server configuration and constants.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structures for server settings such as the listen port,
// the API key and the request body limit used by backup uploads.
//
// # Actors
//
// Every mutating request is attributed to an actor. The actor is read from the
// X-Actor header (see ActorHeader); authentication itself is performed upstream.
package server
