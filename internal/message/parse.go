package message

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
)

// Parse converts an inbound host message into a Response.
//
// The raw map is kept verbatim in Response.Raw; the typed fields are a view
// over it. A missing or non-numeric code is reported as zero.
func Parse(data map[string]any) Response {
	resp := Response{Raw: data}

	resp.Code = parseCode(data[FieldCode])
	resp.Cmd, _ = data[FieldCmd].(string)
	resp.MessageID, _ = data[FieldMessageID].(string)
	resp.Message, _ = data[FieldMessage].(string)
	resp.Data = data[FieldData]

	return resp
}

// CorrelationID returns the string messageId of an inbound message.
func CorrelationID(data map[string]any) (string, bool) {
	id, ok := data[FieldMessageID].(string)

	return id, ok
}

func parseCode(v any) Code {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) {
			return Code(n)
		}
	case int:
		return Code(n)
	case int64:
		return Code(n)
	case Code:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return Code(i)
		}
	}

	return 0
}

// NewOutgoing merges protocol fields with command fields into one flat message.
// cmd and messageId always win over same-named fields.
func NewOutgoing(cmd, token string, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+2)
	maps.Copy(out, fields)

	out[FieldCmd] = cmd
	out[FieldMessageID] = token

	return out
}

// Encode marshals an outgoing message for the transport.
func Encode(out map[string]any) ([]byte, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal outgoing message: %w", err)
	}

	return data, nil
}
