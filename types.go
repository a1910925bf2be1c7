package bridge

import (
	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// Response is the single value every call resolves with.
type Response = message.Response

// Code is the numeric status of a Response.
type Code = message.Code

// Payload is the untyped input of a command before validation.
type Payload = message.Payload

// Response codes.
const (
	CodeSuccess                 = message.CodeSuccess
	CodeInvalidPayload          = message.CodeInvalidPayload
	CodeMissingCertificate      = message.CodeMissingCertificate
	CodeInvalidCertificate      = message.CodeInvalidCertificate
	CodeMethodNotFound          = message.CodeMethodNotFound
	CodeExceededUploadSizeLimit = message.CodeExceededUploadSizeLimit
	CodeTimeout                 = message.CodeTimeout
)

// Command names.
const (
	CmdConnectCocoPay     = command.ConnectCocoPay
	CmdOpenURL            = command.OpenURL
	CmdCopyToClipboard    = command.CopyToClipboard
	CmdSaveImage          = command.SaveImage
	CmdGetAccount         = command.GetAccount
	CmdSetExtendedData    = command.SetExtendedData
	CmdGetExtendedData    = command.GetExtendedData
	CmdGenerateSignature  = command.GenerateSignature
	CmdVerifySignature    = command.VerifySignature
	CmdEncrypt            = command.Encrypt
	CmdDecrypt            = command.Decrypt
	CmdRegisterService    = command.RegisterService
	CmdSendServiceMessage = command.SendServiceMessage
	CmdCheckServiceStatus = command.CheckServiceStatus
	CmdGetSafeAreaInsets  = command.GetSafeAreaInsets
	CmdGetLanguage        = command.GetLanguage
	CmdScanQRCode         = command.ScanQRCode
)

// Limits enforced before a command is sent.
const (
	MaxImageSize = command.MaxImageSize
	MaxURLLength = command.MaxURLLength
)

// Request types accepted by the typed client methods.
type (
	Signature                 = command.Signature
	ConnectCocoPayRequest     = command.ConnectCocoPayRequest
	OpenURLRequest            = command.OpenURLRequest
	CopyToClipboardRequest    = command.CopyToClipboardRequest
	SaveImageRequest          = command.SaveImageRequest
	GetAccountRequest         = command.GetAccountRequest
	SetExtendedDataRequest    = command.SetExtendedDataRequest
	MessageRequest            = command.MessageRequest
	VerifySignatureRequest    = command.VerifySignatureRequest
	DecryptRequest            = command.DecryptRequest
	RegisterServiceRequest    = command.RegisterServiceRequest
	SendServiceMessageRequest = command.SendServiceMessageRequest
)

// Base64Size returns the decoded byte length of a base64 string or data URI.
func Base64Size(s string) int {
	return command.Base64Size(s)
}
