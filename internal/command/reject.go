package command

import (
	"fmt"

	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// Rejection is a local validation failure. It never reaches the transport.
type Rejection struct {
	Code    message.Code
	Message string

	// MessageID is the caller-supplied messageId, if any.
	MessageID string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Response converts the rejection into an error Response for cmd.
func (r *Rejection) Response(cmd string) message.Response {
	return message.Fail(r.Code, cmd, r.MessageID, r.Message)
}

func reject(code message.Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Rejection {
	return reject(message.CodeInvalidPayload, format, args...)
}
