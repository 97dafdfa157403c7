package ws

// Message exposes the unexported message type to the external test package.
type Message = message
