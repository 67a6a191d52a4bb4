// Package api provides the HTTP REST API and WebSocket feed of the keypad
// controller.
//
// Endpoints (JSON unless noted):
//
//	GET  /api/v1/health                       component health
//	GET  /api/v1/keypad                       grid snapshot
//	GET  /api/v1/keypad/keys/{index}          one key
//	POST /api/v1/keypad/keys/{index}/control  {"actions": [...]}, 202 when queued
//	GET  /api/v1/keypad/events                journal history (limit, offset, key, kind)
//	GET  {websocket.path}                     live snapshots on channel "keypad.frame"
//	GET  /panel/                              keypad viewer (HTML)
//
// The server never touches the grid directly. Reads go through the
// controller's snapshot and writes are queued onto its loop.
package api
