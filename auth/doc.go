// Package auth turns bearer credentials into identities and manages
// dashboard accounts.
//
// TokenService signs and verifies HS256 tokens carrying subject and role.
// Identity.CanAccess is the single visibility predicate shared by the HTTP
// handlers, the device registry and the realtime hub.
package auth
