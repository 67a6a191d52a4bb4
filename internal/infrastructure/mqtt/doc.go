// Package mqtt provides the broker connection of the keypad controller.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and subscription restore
//   - Publishing with QoS validation and a bounded wait
//   - Channel-based inbound streams for the keypad event loop
//   - A retained online/offline status with Last Will and Testament
//   - Topic names of the keypad protocol
//
// # Topics
//
//	{prefix}/arr/out           keypad -> controller, press/release events
//	{prefix}/arr/pressed       controller -> keypad, pressed-colour frame
//	{prefix}/arr/released      controller -> keypad, released-colour frame
//	{control}/key/{0..24}      remote control commands per key
//	{prefix}/status            retained controller status
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: cfg.Keypad.SubscribePrefix, ControlPrefix: cfg.Keypad.ControlPrefix}
//	client, err := mqtt.Connect(cfg.MQTT, topics.Status())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	events, err := client.Stream([]string{topics.Events()}, 0, 64)
package mqtt
