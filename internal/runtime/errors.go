package runtime

import "errors"

var (
	errJoinRejected    = errors.New("runtime: join rejected by room policy")
	errSessionNotFound = errors.New("runtime: session not found")
)
