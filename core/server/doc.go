// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber application; this package defines the
// listen port, the API key protecting every route and the per-request
// deadline applied to sync requests.
package server
