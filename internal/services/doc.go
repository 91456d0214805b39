// Package services implements the business logic behind the HTTP handlers.
//
// PricingService starts pricing runs through the operations manager and
// builds the read views over stored runs:
//
//   - RunInfo summaries and paged row access
//   - the SKU modal: fitted demand curve and net margin over the
//     optimization bounds with both optimum points
//   - the optimization recap: current against expected totals
//   - dashboard series: per-day costs, revenue and net margin
//
// Every run id parameter also accepts "latest".
//
// HealthService reports the version, the storage backend and the number of
// websocket clients.
package services
