package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementKeyEvents is the measurement key events are written to.
const MeasurementKeyEvents = "keypad_events"

// WriteKeyEvent records one key event as a point with a count of 1,
// tagged by key index, row, column and kind.
func (c *Client) WriteKeyEvent(index, row, column int, kind string, at time.Time) {
	c.WritePointWithTime(MeasurementKeyEvents, keyEventTags(index, row, column, kind),
		map[string]any{"count": 1},
		at,
	)
}

func keyEventTags(index, row, column int, kind string) map[string]string {
	return map[string]string{
		"key":    strconv.Itoa(index),
		"row":    strconv.Itoa(row),
		"column": strconv.Itoa(column),
		"kind":   kind,
	}
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp. It is a
// no-op when the client is not connected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
