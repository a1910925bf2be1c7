// Package command holds the command table and the per-command payload
// validators.
//
// Each command declares a calling convention: no input, a payload, a
// signature block, or a payload followed by a signature block. Validators
// narrow the caller's untyped input into a typed Request or return a
// *Rejection carrying the error kind; they never touch the transport.
package command
