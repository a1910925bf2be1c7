// Package errors defines error types for the mini-app bridge.
//
// This package provides structured error types for transport and host
// failures, plus ResponseError, the error form of a non-success Response.
// All error types support unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
