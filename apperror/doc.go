// Package apperror defines the domain error taxonomy shared by every layer.
//
// Domain failures carry a stable message and one of five kinds (validation,
// authentication, authorization, not-found, conflict). The HTTP boundary maps
// kinds to status codes; anything outside the taxonomy is reported as a
// generic internal failure.
package apperror
