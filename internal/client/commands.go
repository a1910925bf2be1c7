package client

import (
	"context"
	"maps"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// ConnectCocoPay asks the host to connect the wallet for the requested chains.
func (c *Client) ConnectCocoPay(ctx context.Context, req command.ConnectCocoPayRequest) message.Response {
	return c.Dispatch(ctx, command.ConnectCocoPay, req.Fields())
}

// OpenURL opens an https URL in the host. The host is not expected to reply,
// so the call waits without a timer unless configured otherwise.
func (c *Client) OpenURL(ctx context.Context, req command.OpenURLRequest) message.Response {
	return c.Dispatch(ctx, command.OpenURL, req.Fields())
}

// CopyToClipboard copies text to the host clipboard.
func (c *Client) CopyToClipboard(ctx context.Context, req command.CopyToClipboardRequest) message.Response {
	return c.Dispatch(ctx, command.CopyToClipboard, req.Fields())
}

// SaveImage saves a data:image/ URI to the host gallery.
func (c *Client) SaveImage(ctx context.Context, req command.SaveImageRequest) message.Response {
	return c.Dispatch(ctx, command.SaveImage, req.Fields())
}

// GetAccount reads the current account.
func (c *Client) GetAccount(ctx context.Context, req command.GetAccountRequest) message.Response {
	return c.Dispatch(ctx, command.GetAccount, req.Fields())
}

// SetExtendedData stores a string or object on the host.
func (c *Client) SetExtendedData(ctx context.Context, req command.SetExtendedDataRequest) message.Response {
	return c.Dispatch(ctx, command.SetExtendedData, req.Fields())
}

// GetExtendedData reads the data stored by SetExtendedData.
func (c *Client) GetExtendedData(ctx context.Context) message.Response {
	return c.Dispatch(ctx, command.GetExtendedData)
}

// GenerateSignature signs a message with the host key.
func (c *Client) GenerateSignature(ctx context.Context, req command.MessageRequest) message.Response {
	return c.Dispatch(ctx, command.GenerateSignature, req.Fields())
}

// VerifySignature checks a signature over a message.
func (c *Client) VerifySignature(ctx context.Context, req command.VerifySignatureRequest) message.Response {
	return c.Dispatch(ctx, command.VerifySignature, req.Fields())
}

// Encrypt encrypts a message with the host key.
func (c *Client) Encrypt(ctx context.Context, req command.MessageRequest) message.Response {
	return c.Dispatch(ctx, command.Encrypt, req.Fields())
}

// Decrypt decrypts content with the host key.
func (c *Client) Decrypt(ctx context.Context, req command.DecryptRequest) message.Response {
	return c.Dispatch(ctx, command.Decrypt, req.Fields())
}

// RegisterService registers a service key, authorized by req.Certificate.
func (c *Client) RegisterService(ctx context.Context, req command.RegisterServiceRequest) message.Response {
	payload, sig := splitCertificate(req.Fields())

	return c.Dispatch(ctx, command.RegisterService, payload, sig)
}

// SendServiceMessage relays a service message, authorized by req.Certificate.
func (c *Client) SendServiceMessage(ctx context.Context, req command.SendServiceMessageRequest) message.Response {
	payload, sig := splitCertificate(req.Fields())

	return c.Dispatch(ctx, command.SendServiceMessage, payload, sig)
}

// CheckServiceStatus queries the service status with a certificate.
func (c *Client) CheckServiceStatus(ctx context.Context, sig command.Signature) message.Response {
	return c.Dispatch(ctx, command.CheckServiceStatus, sig.Fields())
}

// GetSafeAreaInsets reads the host safe area insets.
func (c *Client) GetSafeAreaInsets(ctx context.Context) message.Response {
	return c.Dispatch(ctx, command.GetSafeAreaInsets)
}

// GetLanguage reads the host language.
func (c *Client) GetLanguage(ctx context.Context) message.Response {
	return c.Dispatch(ctx, command.GetLanguage)
}

// ScanQRCode opens the host QR scanner.
func (c *Client) ScanQRCode(ctx context.Context) message.Response {
	return c.Dispatch(ctx, command.ScanQRCode)
}

// splitCertificate separates the certificate block from request fields so
// both go through the two-argument calling convention.
func splitCertificate(fields map[string]any) (message.Payload, message.Payload) {
	payload := maps.Clone(fields)

	sig, _ := payload["certificate"].(map[string]any)
	delete(payload, "certificate")

	return payload, sig
}
