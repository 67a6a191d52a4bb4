// Package influxdb exports key events to InfluxDB v2 as time-series points.
//
// Each dispatched press, release or control command becomes one point in
// the keypad_events measurement with tags key, row, column and kind and a
// single integer field count=1, so per-key activity can be summed over any
// window.
//
// Writes go through the client's non-blocking batched write API; Close
// flushes what is still buffered.
package influxdb
