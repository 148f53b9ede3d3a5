package ws

import "errors"

// Admission errors. All three refuse the handshake before the websocket
// upgrade; the distinct values exist for diagnosability.
var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")
)
