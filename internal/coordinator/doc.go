// Package coordinator owns delivery session state.
//
// Ownership boundary:
// - the registry of active sessions keyed by device identity
// - the single-active-session invariant
// - lifecycle transitions driven by connection events
//
// The coordinator holds the only mutable shared state in the process. Slot
// claims follow a two-phase protocol: a device slot is reserved atomically
// before the remote create call is issued, promoted to a session once the
// remote system assigns a delivery id, and released if the call fails. The
// losing side of a concurrent start is rejected before its remote call, so a
// race never creates two remote delivery records for one device.
//
// Coordinator does not speak the wire protocol and does not build HTTP
// requests; the gateway and deliveryapi packages do.
package coordinator
