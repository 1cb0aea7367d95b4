// Package protocol defines the wire messages exchanged over the duplex
// stream and the cleanup surface, together with their validation rules.
// Audio payloads travel base64-encoded inside JSON messages.
package protocol
