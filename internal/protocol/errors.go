package protocol

const (
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrWorldNotFound   = "E_WORLD_NOT_FOUND"
	ErrNotReady        = "E_NOT_READY"
	ErrInvalidTarget   = "E_INVALID_TARGET"
	ErrInternal        = "E_INTERNAL"
)

// Error is a protocol-level failure that is reported to the client.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Msg converts the error to its wire form.
func (e *Error) Msg() ErrorMsg {
	return ErrorMsg{Type: TypeError, Code: e.Code, Message: e.Message}
}

func badRequest(msg string) *Error {
	return &Error{Code: ErrProtoBadRequest, Message: msg}
}
