// Package production contains the order/product lifecycle store for
// Factoryline Core.
//
// An Order is a unit of requested manufacturing work with a target quantity.
// A Product is one serialized unit belonging to exactly one Order. The
// simulator advances both through scheduled -> in_progress -> completed;
// transitions are monotonic except via the explicit reset operations.
//
// The package provides:
//
//   - Order, Product and ProductType types mapping to the SQLite schema
//   - Repository, the persistence interface consumed by the simulator and API
//   - SQLiteRepository, the production implementation
//   - Normalize, which reconciles an order's product rows with its quantity
//   - ResetAll, which returns every order and product to the initial state
//     in a single transaction
//
// Normalize and ResetAll are maintenance operations invoked from the control
// surface, not from the simulation loop; their errors propagate to the caller
// after rollback.
package production
