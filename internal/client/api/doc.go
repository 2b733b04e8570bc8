// Package api is the HTTP client of the ClipShare JSON API used by the CLI.
//
// # Overview
//
// Client wraps the /api endpoints: Register and Login (which store the
// returned bearer token in memory), Me, Upload, ListVideos, ListUserVideos,
// GetVideo and Ping (GET /healthz). The token is attached to every request
// once set and dropped by ClearToken.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable. Non-2xx responses are
// returned as *APIError carrying the status code and the server's message;
// errors.Is matches ErrUnauthorized for 401 and ErrNotFound for 404.
//
// Client is safe for concurrent use.
package api
