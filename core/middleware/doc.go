// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting the sync endpoints.
//   - rayid: a unique request id (RayID) stored in the context and echoed
//     in the response headers for tracing.
package middleware
