// Package mqtt mirrors accepted position fixes to an MQTT broker.
package mqtt
