package command

import (
	"slices"
	"sort"
)

// Command names.
const (
	ConnectCocoPay     = "connectCocoPay"
	OpenURL            = "openURL"
	CopyToClipboard    = "copyToClipboard"
	SaveImage          = "saveImage"
	GetAccount         = "getAccount"
	SetExtendedData    = "setExtendedData"
	GetExtendedData    = "getExtendedData"
	GenerateSignature  = "generateSignature"
	VerifySignature    = "verifySignature"
	Encrypt            = "encrypt"
	Decrypt            = "decrypt"
	RegisterService    = "registerService"
	SendServiceMessage = "sendServiceMessage"
	CheckServiceStatus = "checkServiceStatus"
	GetSafeAreaInsets  = "getSafeAreaInsets"
	GetLanguage        = "getLanguage"
	ScanQRCode         = "scanQRCode"
)

// DefaultNoTimeout lists commands whose reply is not awaited with a timer.
// The host may never answer them.
var DefaultNoTimeout = []string{OpenURL, ScanQRCode}

// Table maps command names to their entries.
type Table map[string]*Entry

// Lookup returns the entry for name.
func (t Table) Lookup(name string) (*Entry, bool) {
	e, ok := t[name]

	return e, ok
}

// Names returns the command names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NewTable returns a fresh command table. Each client owns its own table.
func NewTable() Table {
	entries := []*Entry{
		{
			Name:        ConnectCocoPay,
			Convention:  ConventionPayload,
			Description: "Connect the CocoPay wallet for the given chains",
			Params: []Param{
				{Name: "chainList", Type: "array", Required: true, Description: "chains to connect"},
				{Name: "walletSupports", Type: "array", Description: "wallet capabilities requested"},
			},
			payload: validateConnectCocoPay,
		},
		{
			Name:        OpenURL,
			Convention:  ConventionPayload,
			Description: "Open an https URL in the host",
			Params: []Param{
				{Name: "url", Type: "string", Required: true, Description: "https URL, at most 200 characters"},
				{Name: "useSystemOpen", Type: "boolean", Description: "open with the system browser"},
			},
			payload: validateOpenURL,
		},
		{
			Name:        CopyToClipboard,
			Convention:  ConventionPayload,
			Description: "Copy text to the host clipboard",
			Params: []Param{
				{Name: "text", Type: "string", Required: true, Description: "text to copy"},
			},
			payload: validateCopyToClipboard,
		},
		{
			Name:        SaveImage,
			Convention:  ConventionPayload,
			Description: "Save a base64 data:image/ URI of at most 1 MiB",
			Params: []Param{
				{Name: "image", Type: "string", Required: true, Description: "data:image/ URI"},
			},
			payload: validateSaveImage,
		},
		{
			Name:        GetAccount,
			Convention:  ConventionPayload,
			Description: "Read the current account",
			Params: []Param{
				{Name: "type", Type: "string", Description: `account type, only "1" is accepted`},
			},
			payload: validateGetAccount,
		},
		{
			Name:        SetExtendedData,
			Convention:  ConventionPayload,
			Description: "Store extended data on the host",
			Params: []Param{
				{Name: "extend", Type: "any", Required: true, Description: "object or string to store"},
			},
			payload: validateSetExtendedData,
		},
		{
			Name:        GenerateSignature,
			Convention:  ConventionPayload,
			Description: "Sign a message with the host key",
			Params: []Param{
				{Name: "message", Type: "string", Required: true, Description: "message to sign"},
			},
			payload: validateMessage,
		},
		{
			Name:        Encrypt,
			Convention:  ConventionPayload,
			Description: "Encrypt a message with the host key",
			Params: []Param{
				{Name: "message", Type: "string", Required: true, Description: "message to encrypt"},
			},
			payload: validateMessage,
		},
		{
			Name:        VerifySignature,
			Convention:  ConventionPayload,
			Description: "Verify a signature over a message",
			Params: []Param{
				{Name: "message", Type: "string", Required: true, Description: "signed message"},
				{Name: "signature", Type: "string", Required: true, Description: "signature to check"},
			},
			payload: validateVerifySignature,
		},
		{
			Name:        Decrypt,
			Convention:  ConventionPayload,
			Description: "Decrypt content with the host key",
			Params: []Param{
				{Name: "content", Type: "string", Required: true, Description: "ciphertext"},
			},
			payload: validateDecrypt,
		},
		{
			Name:        RegisterService,
			Convention:  ConventionPayloadAndSignature,
			Description: "Register a service key, authorized by a certificate",
			Params: []Param{
				{Name: "serviceKey", Type: "string", Required: true, Description: "service key"},
			},
			payloadAndSignature: validateRegisterService,
		},
		{
			Name:        SendServiceMessage,
			Convention:  ConventionPayloadAndSignature,
			Description: "Relay an HTTP service message, authorized by a certificate",
			Params: []Param{
				{Name: "content", Type: "object", Required: true, Description: "message body"},
				{Name: "type", Type: "string", Required: true, Description: `must be "HTTP"`},
			},
			payloadAndSignature: validateSendServiceMessage,
		},
		{
			Name:        CheckServiceStatus,
			Convention:  ConventionSignature,
			Description: "Check service status with a certificate",
			signature:   validateCheckServiceStatus,
		},
	}

	for _, name := range []string{GetSafeAreaInsets, GetLanguage, ScanQRCode, GetExtendedData} {
		entries = append(entries, &Entry{
			Name:       name,
			Convention: ConventionNone,
			none:       func() Request { return EmptyRequest{} },
		})
	}

	t := make(Table, len(entries))
	for _, e := range entries {
		t[e.Name] = e
	}

	return t
}

// IsNoTimeout reports whether name is in the no-timeout list.
func IsNoTimeout(list []string, name string) bool {
	return slices.Contains(list, name)
}
