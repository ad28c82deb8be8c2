package mqtt

import "fmt"

// Topic prefixes for the Factoryline MQTT namespace.
//
// All topics use the scheme: factoryline/{category}/{...}
// The event bridge publishes simulation activity here so plant dashboards
// and downstream MES integrations can follow production without polling.
const (
	// TopicPrefix is the base for all Factoryline topics.
	TopicPrefix = "factoryline"

	// TopicPrefixSimulation is the base for simulation topics.
	TopicPrefixSimulation = "factoryline/simulation"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "factoryline/system"
)

// Topics provides builders for Factoryline MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.SimulationEvent()
//	// Returns: "factoryline/simulation/event"
type Topics struct{}

// SimulationEvent returns the topic for production line events.
// One message per station event, payload is the event JSON.
//
// Example: factoryline/simulation/event
func (Topics) SimulationEvent() string {
	return fmt.Sprintf("%s/event", TopicPrefixSimulation)
}

// SimulationStatus returns the topic for driver state changes.
// Published retained so new subscribers see whether the line is running.
//
// Example: factoryline/simulation/status
func (Topics) SimulationStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSimulation)
}

// SimulationCommand returns the topic for remote control commands.
// The backend subscribes here and accepts {"command":"start"} / "stop".
//
// Example: factoryline/simulation/command
func (Topics) SimulationCommand() string {
	return fmt.Sprintf("%s/command", TopicPrefixSimulation)
}

// OrderState returns the topic for per-order lifecycle updates.
//
// Example: factoryline/order/ORD-20260301-001/state
func (Topics) OrderState(orderCode string) string {
	return fmt.Sprintf("%s/order/%s/state", TopicPrefix, orderCode)
}

// AllOrderStates returns a pattern matching all order lifecycle updates.
//
// Pattern: factoryline/order/+/state
func (Topics) AllOrderStates() string {
	return fmt.Sprintf("%s/order/+/state", TopicPrefix)
}

// SystemStatus returns the system status topic.
// Used for online/offline presence including the LWT message.
//
// Example: factoryline/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all Factoryline topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: factoryline/#
func (Topics) AllTopics() string {
	return "factoryline/#"
}
