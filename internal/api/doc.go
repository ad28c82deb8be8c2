// Package api provides the HTTP REST API and WebSocket server for
// Factoryline Core.
//
// It exposes simulation control (start, stop, status, events), order and
// product queries, and data repair operations (normalize, reset) to user
// interfaces, and relays live simulation events over WebSocket and,
// optionally, MQTT.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
