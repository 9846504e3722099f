// Package registry owns device identity and credentials.
//
// Registration mints a public tracking identifier (GST- plus eight uppercase
// hex digits) and a one-time ingest key stored only as a bcrypt hash, retrying
// identifier collisions a bounded number of times. The registry also provides
// the scope-filtered listing, presence mutation, cascade deletion and history
// access used by the HTTP layer, the tracking engine and the realtime hub.
package registry
