package bridge

// Transport is one connection to the external control surface.
// Start performs the handshake and begins delivering inbound messages
// to onMessage; a Start error means the surface is unavailable.
// Send is outbound-only and must not block on the surface.
type Transport interface {
	Start(onMessage func(Message)) error
	Send(Message) error
	Close() error
}
