// Package protocol owns the real-time wire vocabulary.
//
// Ownership boundary:
// - event names for both directions of the namespace channel
// - typed payloads with boundary validation
// - delivery and device status string constants
//
// Protocol does not interpret events; the coordinator does.
package protocol
