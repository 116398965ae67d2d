package models

// Session is the server side record bound to a successful member login. It is
// kept in the cache, not in the directory database: the session id is derived
// from the start timestamp and can be regenerated for validation.
type Session struct {
	ID string `redis:"id"`
	// APIKey is the public key of the API identity the login happened
	// through. A session may only be used with requests resolved to the same
	// identity.
	APIKey            string `redis:"api_key"`
	Username          string `redis:"username"`
	SourceName        string `redis:"source_name"`
	SourceApplication string `redis:"source_application"`
	// StartedAt is the POSIX timestamp the session was created at, the input
	// to the derived session id.
	StartedAt int64 `redis:"started_at"`
}
