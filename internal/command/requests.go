package command

// Signature is the certificate block shared by service commands.
type Signature struct {
	Content   string
	Signature string
}

// Fields returns the wire form of the block.
func (s Signature) Fields() map[string]any {
	return map[string]any{
		"content":   s.Content,
		"signature": s.Signature,
	}
}

// EmptyRequest is the body of commands that take no input.
type EmptyRequest struct{}

// Fields implements Request.
func (EmptyRequest) Fields() map[string]any { return nil }

// ConnectCocoPayRequest asks the host to connect a wallet.
type ConnectCocoPayRequest struct {
	ChainList      []any
	WalletSupports []any
}

// Fields implements Request.
func (r ConnectCocoPayRequest) Fields() map[string]any {
	f := map[string]any{}
	if r.ChainList != nil {
		f["chainList"] = r.ChainList
	}

	if r.WalletSupports != nil {
		f["walletSupports"] = r.WalletSupports
	}

	return f
}

// OpenURLRequest asks the host to open an https URL.
type OpenURLRequest struct {
	URL           string
	UseSystemOpen *bool
}

// Fields implements Request.
func (r OpenURLRequest) Fields() map[string]any {
	f := map[string]any{"url": r.URL}
	if r.UseSystemOpen != nil {
		f["useSystemOpen"] = *r.UseSystemOpen
	}

	return f
}

// CopyToClipboardRequest copies text to the host clipboard.
type CopyToClipboardRequest struct {
	Text string
}

// Fields implements Request.
func (r CopyToClipboardRequest) Fields() map[string]any {
	return map[string]any{"text": r.Text}
}

// SaveImageRequest saves a data:image/ URI to the host gallery.
type SaveImageRequest struct {
	Image string
}

// Fields implements Request.
func (r SaveImageRequest) Fields() map[string]any {
	return map[string]any{"image": r.Image}
}

// GetAccountRequest reads the current account. Type is empty or "1".
type GetAccountRequest struct {
	Type string
}

// Fields implements Request.
func (r GetAccountRequest) Fields() map[string]any {
	if r.Type == "" {
		return map[string]any{}
	}

	return map[string]any{"type": r.Type}
}

// SetExtendedDataRequest stores a string or object on the host.
type SetExtendedDataRequest struct {
	Extend any
}

// Fields implements Request.
func (r SetExtendedDataRequest) Fields() map[string]any {
	return map[string]any{"extend": r.Extend}
}

// MessageRequest carries a single message, used by generateSignature and encrypt.
type MessageRequest struct {
	Message string
}

// Fields implements Request.
func (r MessageRequest) Fields() map[string]any {
	return map[string]any{"message": r.Message}
}

// VerifySignatureRequest checks a signature over a message.
type VerifySignatureRequest struct {
	Message   string
	Signature string
}

// Fields implements Request.
func (r VerifySignatureRequest) Fields() map[string]any {
	return map[string]any{
		"message":   r.Message,
		"signature": r.Signature,
	}
}

// DecryptRequest decrypts content on the host.
type DecryptRequest struct {
	Content string
}

// Fields implements Request.
func (r DecryptRequest) Fields() map[string]any {
	return map[string]any{"content": r.Content}
}

// RegisterServiceRequest registers a service key with the host.
type RegisterServiceRequest struct {
	ServiceKey  string
	Certificate Signature
}

// Fields implements Request.
func (r RegisterServiceRequest) Fields() map[string]any {
	return map[string]any{
		"serviceKey":  r.ServiceKey,
		"certificate": r.Certificate.Fields(),
	}
}

func (r RegisterServiceRequest) withCertificate(sig Signature) Request {
	r.Certificate = sig

	return r
}

// SendServiceMessageRequest relays a service message through the host.
type SendServiceMessageRequest struct {
	Content     map[string]any
	Type        string
	Certificate Signature
}

// Fields implements Request.
func (r SendServiceMessageRequest) Fields() map[string]any {
	return map[string]any{
		"content":     r.Content,
		"type":        r.Type,
		"certificate": r.Certificate.Fields(),
	}
}

func (r SendServiceMessageRequest) withCertificate(sig Signature) Request {
	r.Certificate = sig

	return r
}

// CheckServiceStatusRequest queries service status with a certificate only.
type CheckServiceStatusRequest struct {
	Certificate Signature
}

// Fields implements Request.
func (r CheckServiceStatusRequest) Fields() map[string]any {
	return map[string]any{"certificate": r.Certificate.Fields()}
}
