// Package mcp exposes bridge commands as Model Context Protocol tools.
//
// Every entry of the command table becomes one tool whose input schema is
// derived from the entry's declared parameters. Tool calls go through the
// same validation and dispatch path as direct client calls, and the host's
// Response is returned as JSON text.
package mcp
