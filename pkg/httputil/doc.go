// Package httputil provides the HTTP plumbing behind the catalog preview
// server.
//
// # Responses
//
// [WriteJSON] encodes a value with the right content type. [WriteError] maps
// coded errors from pkg/errors to status codes and a JSON body:
//
//	NOT_FOUND                         → 404
//	INVALID_INPUT, INVALID_PATH       → 400
//	anything else                     → 500
//
// Internal failures are logged but their message is not sent to the client.
//
// # Middleware
//
// [RequestLogger] logs one line per request through charmbracelet/log, with
// the chi request ID when the RequestID middleware runs first.
package httputil
