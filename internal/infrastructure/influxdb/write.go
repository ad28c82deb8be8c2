package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStageDuration records how long a station stage took for one product.
//
// This is the primary measurement for line balancing analysis: each stage
// of each product cycle produces one point. The write is non-blocking;
// data is batched and sent asynchronously.
//
// Parameters:
//   - stage: Station stage name (e.g., "scanner", "labeling", "qc")
//   - seconds: Simulated stage duration in seconds
//   - orderCode: Order the product belongs to
//   - serialNumber: Product serial number
//
// Example:
//
//	client.WriteStageDuration("labeling", 1.2, "ORD-001", "WM-260301-0001-A1B2")
func (c *Client) WriteStageDuration(stage string, seconds float64, orderCode, serialNumber string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"stage_duration_seconds",
		map[string]string{
			"stage":      stage,
			"order_code": orderCode,
		},
		map[string]interface{}{
			"value":         seconds,
			"serial_number": serialNumber,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteProductCycle records the total cycle time for one completed product.
//
// Parameters:
//   - orderCode: Order the product belongs to
//   - serialNumber: Product serial number
//   - seconds: Total simulated cycle time in seconds
func (c *Client) WriteProductCycle(orderCode, serialNumber string, seconds float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"product_cycle_seconds",
		map[string]string{
			"order_code": orderCode,
		},
		map[string]interface{}{
			"value":         seconds,
			"serial_number": serialNumber,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteOrderCompleted records an order completion with its quantity.
//
// Parameters:
//   - orderCode: The completed order
//   - quantity: Number of products produced
func (c *Client) WriteOrderCompleted(orderCode string, quantity int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"order_completed",
		map[string]string{
			"order_code": orderCode,
		},
		map[string]interface{}{
			"quantity": quantity,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
