// Package store owns the durable data model: users, devices with their
// last-location snapshot, and the append-only location history.
//
// The production database is Postgres; tests run the same schema on
// in-memory sqlite through Open. History rows expire after a retention
// window enforced by RetentionJanitor.
package store
