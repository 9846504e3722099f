// Package realtime manages persistent dashboard connections.
//
// The Hub authenticates websocket handshakes, tracks topic membership
// (per-device, per-owner and a global admin topic), maintains the global
// connection counter broadcast to every session, and fans location and
// presence events out to subscribers. It implements tracking.Publisher.
package realtime
