// Package geosentinel is the HTTP surface of the GeoSentinel tracking
// backend.
//
// It wires the device registry, tracking engine, broadcast coalescer and
// realtime hub behind a JSON API: account and device management, two
// location ingestion paths (device-keyed by tracking identifier, and
// session-keyed by device id), admin metrics, and the /ws live channel.
package geosentinel
