// Package client implements the bridge Client, the entry point for calling
// host commands.
//
// Each Client owns a private command table and call registry. Construction
// attaches the client to the shared listener of its transport; Close detaches
// it and settles every call it still has outstanding. Every call resolves
// with exactly one Response: validation rejections, an unreachable host,
// timeouts and teardown are all reported as error Responses rather than Go
// errors.
package client
