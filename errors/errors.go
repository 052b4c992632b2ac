package errors

import "fmt"

var (
	ErrNotConnected   = fmt.Errorf("client is not connected")
	ErrMissingUserID  = fmt.Errorf("user id is required")
	ErrSenderMismatch = fmt.Errorf("sender does not match the connected user")
)
