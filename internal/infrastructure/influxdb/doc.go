// Package influxdb provides time-series metric storage for Factoryline Core.
//
// The integration is optional: when enabled in config.yaml, the simulation
// records per-stage durations and product cycle times so dashboards can
// analyse line balance and throughput. When disabled, the simulator runs
// without metrics.
//
// # Features
//
//   - Token-authenticated connection to InfluxDB v2
//   - Non-blocking batched writes (configurable batch size / flush interval)
//   - Async write error callback
//   - Helper methods for the standard Factoryline measurements
//
// # Measurements
//
//	stage_duration_seconds  - one point per station stage per product
//	product_cycle_seconds   - one point per completed product
//	order_completed         - one point per completed order
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteStageDuration("scanner", 1.0, "ORD-001", "WM-260301-0001-A1B2")
package influxdb
