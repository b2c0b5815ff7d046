// Package services contains the server-side business logic: resolving the
// session cookie to a user (Authenticator), creating and ending sessions
// (SessionService), and account management (UserService).
//
// Services hold a *sql.DB and a repomanager.RepositoryManager and bind
// repositories per call, either to the pool or to a transaction opened with
// dbx.WithTx. Time is always passed in or read from an injected clock.
package services
