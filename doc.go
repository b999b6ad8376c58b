// Package tophat implements an embeddable HTTP/1.1 connection driver: given
// an already-accepted net.Conn and an endpoint function, Accept runs the
// request/response loop until the peer disconnects, a fatal protocol error
// occurs, or the idle timeout elapses. The listening socket, TLS, and
// per-connection goroutine spawning are the host program's responsibility.
package tophat
