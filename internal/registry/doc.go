// Package registry tracks live-update connections by subscriber key.
//
// The Registry is an actor: one goroutine owns the key -> connections map and
// every mutation (register, unregister, send-and-reap) arrives over its command
// channel, so no caller ever touches the map directly. Each websocket is wrapped
// by a WSConn whose writer goroutine serializes frames, keeps the transport
// alive with pings and reports a dead transport on the next send.
package registry
