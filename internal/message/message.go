package message

import (
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
)

// Code is the numeric status carried by every Response.
type Code int

// Response codes. CodeSuccess marks the success shape; every other value is an
// error kind.
const (
	// CodeSuccess marks a successful reply.
	CodeSuccess Code = 200
	// CodeInvalidPayload reports a rejected payload or an unreachable host.
	CodeInvalidPayload Code = 4001
	// CodeMissingCertificate reports an absent signature block.
	CodeMissingCertificate Code = 4002
	// CodeInvalidCertificate reports a malformed signature block.
	CodeInvalidCertificate Code = 4003
	// CodeMethodNotFound reports an internal fault while dispatching a command.
	CodeMethodNotFound Code = 4004
	// CodeExceededUploadSizeLimit reports an image over the upload limit.
	CodeExceededUploadSizeLimit Code = 4005
	// CodeTimeout reports a reply that never arrived, or a destroyed client.
	CodeTimeout Code = errors.TimeoutCode
)

// String returns the kind name of the code.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeInvalidPayload:
		return "invalid_payload"
	case CodeMissingCertificate:
		return "missing_certificate"
	case CodeInvalidCertificate:
		return "invalid_certificate"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeExceededUploadSizeLimit:
		return "exceeded_upload_size_limit"
	case CodeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Reserved wire field names. Payload keys with these names are overwritten.
const (
	FieldCmd       = "cmd"
	FieldMessageID = "messageId"
	FieldCode      = "code"
	FieldMessage   = "message"
	FieldData      = "data"
)

// Payload is the untyped key-value input accepted before validation.
type Payload = map[string]any

// Response is the single value every call resolves with.
//
// Wire format for success:
//
//	{"code": 200, "cmd": "getLanguage", "messageId": "…", "data": {...}}
//
// Wire format for error:
//
//	{"code": 4001, "messageId": "…", "cmd": "openURL", "message": "url is required"}
type Response struct {
	Code      Code   `json:"code"`
	Cmd       string `json:"cmd,omitempty"`
	MessageID string `json:"messageId"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`

	// Raw holds the inbound structure verbatim. It is nil for responses
	// synthesized locally.
	Raw map[string]any `json:"-"`
}

// IsSuccess reports whether the response has the success shape.
func (r Response) IsSuccess() bool {
	return r.Code == CodeSuccess
}

// Err returns nil for a success response and a *errors.ResponseError otherwise.
func (r Response) Err() error {
	if r.IsSuccess() {
		return nil
	}

	return &errors.ResponseError{
		Code:      int(r.Code),
		Cmd:       r.Cmd,
		MessageID: r.MessageID,
		Message:   r.Message,
	}
}

// DataMap returns Data as a map, or nil when it has another shape.
func (r Response) DataMap() map[string]any {
	m, _ := r.Data.(map[string]any)

	return m
}

// Fail builds a locally synthesized error response.
func Fail(code Code, cmd, messageID, msg string) Response {
	return Response{
		Code:      code,
		Cmd:       cmd,
		MessageID: messageID,
		Message:   msg,
	}
}
