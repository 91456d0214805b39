// Package websocket streams operation snapshots to browser clients. The Hub
// implements the operations status sink; each connected Client gets every
// broadcast as one JSON text frame.
package websocket
