package common

import "time"

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "session_id"

// SessionTTL is the fixed lifetime of every session, counted from creation.
const SessionTTL = 7 * 24 * time.Hour
