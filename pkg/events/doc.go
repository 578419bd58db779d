/*
Package events provides a small in-process publish/subscribe broker.

The manager publishes an event for every accepted packet and credential-list
change; the websocket hub and the optional MQTT mirror subscribe. Delivery is
best effort: a subscriber that cannot keep up loses events rather than
blocking ingest.
*/
package events
