package defs

// Protocol data structures. Each message is the whole payload of one
// connection direction, terminated by the sender half-closing.
type (
	// DispatchRequest is sent by a client asking for work or reporting success
	DispatchRequest struct {
		ID              string `json:"id"`
		Found           bool   `json:"found"`
		CorrectPassword string `json:"correct_password,omitempty"`
	}

	// WorkAssignment is the work unit sent back to a client
	WorkAssignment struct {
		Data      string   `json:"data"`
		Passwords []string `json:"passwords"`
	}

	// HeartbeatRequest is a liveness ping
	HeartbeatRequest struct {
		ID string `json:"id"`
	}

	// HeartbeatResponse tells the client whether the password is already known
	HeartbeatResponse struct {
		Found bool `json:"found"`
	}
)
