package command

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

const (
	// MaxImageSize is the largest decoded image saveImage accepts, inclusive.
	MaxImageSize = 1 << 20

	// MaxURLLength is the longest URL openURL accepts, in characters.
	MaxURLLength = 200

	imagePrefix = "data:image/"
	httpsPrefix = "https://"
)

// ParseSignature validates a signature block.
//
// A nil block is a missing certificate; a block without non-empty content and
// signature strings is an invalid certificate.
func ParseSignature(p message.Payload) (Signature, error) {
	if p == nil {
		return Signature{}, reject(message.CodeMissingCertificate, "certificate is required")
	}

	content, okContent := nonEmptyString(p, "content")
	signature, okSignature := nonEmptyString(p, "signature")

	if !okContent || !okSignature {
		return Signature{}, reject(
			message.CodeInvalidCertificate,
			"certificate requires non-empty content and signature",
		)
	}

	return Signature{Content: content, Signature: signature}, nil
}

func validateConnectCocoPay(p message.Payload) (Request, error) {
	chainList, ok := p["chainList"]
	if !ok || !isSequence(chainList) {
		return nil, invalid("chainList must be an array")
	}

	req := ConnectCocoPayRequest{ChainList: toSlice(chainList)}

	if ws, ok := p["walletSupports"]; ok && ws != nil {
		if !isSequence(ws) {
			return nil, invalid("walletSupports must be an array")
		}

		req.WalletSupports = toSlice(ws)
	}

	return req, nil
}

func validateOpenURL(p message.Payload) (Request, error) {
	raw, _ := p["url"].(string)

	url := strings.TrimSpace(raw)
	if url == "" {
		return nil, invalid("url is required")
	}

	if !strings.HasPrefix(url, httpsPrefix) {
		return nil, invalid("url must start with %s", httpsPrefix)
	}

	if utf8.RuneCountInString(url) > MaxURLLength {
		return nil, invalid("url must be at most %d characters", MaxURLLength)
	}

	req := OpenURLRequest{URL: url}

	if v, ok := p["useSystemOpen"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, invalid("useSystemOpen must be a boolean")
		}

		req.UseSystemOpen = &b
	}

	return req, nil
}

func validateCopyToClipboard(p message.Payload) (Request, error) {
	text, ok := nonEmptyString(p, "text")
	if !ok {
		return nil, invalid("text is required")
	}

	return CopyToClipboardRequest{Text: text}, nil
}

func validateSaveImage(p message.Payload) (Request, error) {
	image, ok := nonEmptyString(p, "image")
	if !ok {
		return nil, invalid("image is required")
	}

	if !strings.HasPrefix(image, imagePrefix) {
		return nil, invalid("image must be a %s URI", imagePrefix)
	}

	if size := Base64Size(image); size > MaxImageSize {
		return nil, reject(
			message.CodeExceededUploadSizeLimit,
			"image is %d bytes, limit is %d bytes", size, MaxImageSize,
		)
	}

	// Unpadded data URIs are accepted, as Base64Size counts them.
	data := strings.TrimRight(stripBase64(image), "=")
	if data == "" {
		return nil, invalid("image data is empty")
	}

	if _, err := base64.RawStdEncoding.DecodeString(data); err != nil {
		return nil, invalid("image is not valid base64")
	}

	return SaveImageRequest{Image: image}, nil
}

func validateGetAccount(p message.Payload) (Request, error) {
	v, ok := p["type"]
	if !ok {
		return GetAccountRequest{}, nil
	}

	if s, _ := v.(string); s != "1" {
		return nil, invalid(`type must be "1"`)
	}

	return GetAccountRequest{Type: "1"}, nil
}

func validateSetExtendedData(p message.Payload) (Request, error) {
	v, ok := p["extend"]
	if !ok || v == nil {
		return nil, invalid("extend is required")
	}

	if isSequence(v) {
		return nil, invalid("extend must not be an array")
	}

	if _, isString := v.(string); !isString && !isKeyed(v) {
		return nil, invalid("extend must be an object or a string")
	}

	return SetExtendedDataRequest{Extend: v}, nil
}

func validateMessage(p message.Payload) (Request, error) {
	msg, ok := nonEmptyString(p, "message")
	if !ok {
		return nil, invalid("message is required")
	}

	return MessageRequest{Message: msg}, nil
}

func validateVerifySignature(p message.Payload) (Request, error) {
	msg, ok := nonEmptyString(p, "message")
	if !ok {
		return nil, invalid("message is required")
	}

	sig, ok := nonEmptyString(p, "signature")
	if !ok {
		return nil, invalid("signature is required")
	}

	return VerifySignatureRequest{Message: msg, Signature: sig}, nil
}

func validateDecrypt(p message.Payload) (Request, error) {
	content, ok := nonEmptyString(p, "content")
	if !ok {
		return nil, invalid("content is required")
	}

	return DecryptRequest{Content: content}, nil
}

func validateRegisterService(p message.Payload) (Request, error) {
	key, ok := nonEmptyString(p, "serviceKey")
	if !ok {
		return nil, invalid("serviceKey is required")
	}

	return RegisterServiceRequest{ServiceKey: key}, nil
}

func validateSendServiceMessage(p message.Payload) (Request, error) {
	content, ok := p["content"]
	if !ok || content == nil || isSequence(content) || !isKeyed(content) {
		return nil, invalid("content must be an object")
	}

	if t, _ := p["type"].(string); t != "HTTP" {
		return nil, invalid(`type must be "HTTP"`)
	}

	return SendServiceMessageRequest{Content: toMap(content), Type: "HTTP"}, nil
}

func validateCheckServiceStatus(sig Signature) (Request, error) {
	return CheckServiceStatusRequest{Certificate: sig}, nil
}

// Base64Size returns the decoded byte length of a base64 string or data URI.
//
// Everything up to and including the first comma is dropped, whitespace is
// removed, and the result is floor(len*3/4) minus the trailing padding count.
func Base64Size(s string) int {
	s = stripBase64(s)

	padding := 0

	switch {
	case strings.HasSuffix(s, "=="):
		padding = 2
	case strings.HasSuffix(s, "="):
		padding = 1
	}

	return max(len(s)*3/4-padding, 0)
}

func stripBase64(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)
}

// nonEmptyString returns the string at key if it is non-empty after trimming.
// The original value is returned untrimmed.
func nonEmptyString(p message.Payload, key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}

	return s, true
}

func isSequence(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case []any, []string, []map[string]any:
		return true
	}

	k := reflect.TypeOf(v).Kind()

	return k == reflect.Slice || k == reflect.Array
}

// isKeyed reports whether v is a non-nil map.
func isKeyed(v any) bool {
	if m, ok := v.(map[string]any); ok {
		return m != nil
	}

	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Map && !rv.IsNil()
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}

	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())

	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}

	rv := reflect.ValueOf(v)
	out := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}

	return out
}
