// Package panel serves the keypad viewer, a static page that mirrors the
// 5x5 grid in a browser.
//
// The page is embedded into the binary with go:embed. It connects to the
// API WebSocket, draws each key in its current pressed or released colour
// as keypad.frame events arrive and can toggle blinking through the
// control endpoint.
//
// Handler serves the embedded assets, or a directory on disk when one is
// given, with index.html as the fallback for unknown paths.
package panel
