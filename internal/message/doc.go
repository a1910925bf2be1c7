// Package message defines the wire shapes exchanged with the host container.
//
// Outgoing messages are flat JSON objects merging the reserved cmd and
// messageId fields with command fields. Inbound messages are parsed into a
// Response whose Raw field keeps the host's structure verbatim.
package message
