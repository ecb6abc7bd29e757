// Package api defines the wire types and HTTP surface of the talknote
// daemon.
//
// Converters translate ledger jobs into transport DTOs shared by the HTTP
// server and the CLI. The Server exposes job submission (multipart upload
// or JSON URL), non-blocking status polls, owner-scoped history with
// hide/hide-all, a websocket status stream, log tailing, and a health
// report. Callers identify themselves with the X-Talknote-Owner header;
// an optional bearer token guards every route.
//
// DTOs use camelCase JSON tags. Timestamps are RFC3339 with milliseconds.
package api
