// Package config handles loading and validating the keypad controller configuration.
//
// This package manages:
//   - Loading configuration from YAML or TOML files
//   - Overriding with KEYPAD_* environment variables
//   - Validation of all 25 key records and their actions
//   - Default value handling
//
// Configuration is validated once at startup. A file with a missing key
// record, a malformed colour or an unknown action type is rejected before
// any MQTT connection is made.
//
// Usage:
//
//	cfg, err := config.Load("config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pad, _ := cfg.Keypad.Pad(0, 0)
package config
