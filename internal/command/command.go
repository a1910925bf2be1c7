package command

import (
	"fmt"

	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// Convention describes which caller-supplied parts a command validates and
// forwards.
type Convention int

const (
	// ConventionNone takes no input.
	ConventionNone Convention = iota
	// ConventionPayload takes a single payload.
	ConventionPayload
	// ConventionSignature takes a signature block only.
	ConventionSignature
	// ConventionPayloadAndSignature takes a payload followed by a signature block.
	ConventionPayloadAndSignature
)

// String returns the convention name.
func (c Convention) String() string {
	switch c {
	case ConventionNone:
		return "none"
	case ConventionPayload:
		return "payload"
	case ConventionSignature:
		return "signature"
	case ConventionPayloadAndSignature:
		return "payloadAndSignature"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// Arity returns how many positional arguments the convention consumes.
func (c Convention) Arity() int {
	switch c {
	case ConventionPayload, ConventionSignature:
		return 1
	case ConventionPayloadAndSignature:
		return 2
	default:
		return 0
	}
}

// Request is a validated command body.
type Request interface {
	// Fields returns the command fields merged into the outgoing message.
	Fields() map[string]any
}

// certified is implemented by requests that carry a signature block.
type certified interface {
	withCertificate(sig Signature) Request
}

// Param declares one payload field of a command. Params drive generated
// schemas; validation is done by the command's validator.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Entry is one row of the command table.
//
// Exactly one validator field is set, selected by Convention.
type Entry struct {
	Name        string
	Convention  Convention
	Description string
	Params      []Param

	none                func() Request
	payload             func(message.Payload) (Request, error)
	signature           func(Signature) (Request, error)
	payloadAndSignature func(message.Payload) (Request, error)
}

// Validate applies the entry's calling convention to args and returns the
// normalized request or a *Rejection.
//
// A panic inside a validator is converted into an invalid-payload rejection.
func (e *Entry) Validate(args ...message.Payload) (req Request, err error) {
	callerID := callerMessageID(args)

	defer func() {
		if r := recover(); r != nil {
			req = nil
			err = &Rejection{
				Code:      message.CodeInvalidPayload,
				Message:   "invalid params",
				MessageID: callerID,
			}
		}
	}()

	switch e.Convention {
	case ConventionNone:
		return e.none(), nil

	case ConventionPayload:
		req, err = e.payload(arg(args, 0))

	case ConventionSignature:
		var sig Signature

		sig, err = ParseSignature(arg(args, 0))
		if err == nil {
			req, err = e.signature(sig)
		}

	case ConventionPayloadAndSignature:
		req, err = e.payloadAndSignature(arg(args, 0))
		if err == nil {
			var sig Signature

			sig, err = ParseSignature(arg(args, 1))
			if err == nil {
				req = req.(certified).withCertificate(sig)
			}
		}

	default:
		return nil, reject(message.CodeMethodNotFound, "unsupported calling convention %s", e.Convention)
	}

	if err != nil {
		if rej, ok := err.(*Rejection); ok && rej.MessageID == "" {
			rej.MessageID = callerID
		}

		return nil, err
	}

	return req, nil
}

func arg(args []message.Payload, i int) message.Payload {
	if i < len(args) {
		return args[i]
	}

	return nil
}

// callerMessageID returns the first string messageId found in the arguments.
// It only labels rejections; the wire token is always minted fresh.
func callerMessageID(args []message.Payload) string {
	for _, a := range args {
		if id, ok := a[message.FieldMessageID].(string); ok {
			return id
		}
	}

	return ""
}
