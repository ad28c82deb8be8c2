// Package mqtt provides the MQTT client wrapper for Factoryline Core.
//
// The broker connection is optional: when enabled in config.yaml, the
// simulation publishes production events and driver status to the
// factoryline/# namespace and accepts remote start/stop commands. When
// disabled, the simulator runs standalone with the HTTP/WebSocket surface
// only.
//
// # Features
//
//   - Connection management with auto-reconnect and exponential backoff
//   - Last Will and Testament for offline detection
//   - Subscription restoration after reconnect
//   - Panic recovery in message handlers
//   - Consistent topic naming via the Topics builder
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.SimulationEvent()
//	err = client.Publish(topic, payload, byte(cfg.MQTT.QoS), false)
//
// # Topic Hierarchy
//
//	factoryline/simulation/event     - per-station production events
//	factoryline/simulation/status    - driver running/stopped (retained)
//	factoryline/simulation/command   - remote start/stop commands
//	factoryline/order/{code}/state   - order lifecycle updates
//	factoryline/system/status        - service online/offline (retained, LWT)
package mqtt
