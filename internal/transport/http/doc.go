// Package http contains the chi handlers of the pricing API.
//
// Each handler owns a slice of the route tree and is mounted by the
// application router:
//
//	/api/runs                   RunsHandler
//	/api/operations             OperationsHandler
//	/api/products/clusters      ClustersHandler
//	/api/health                 HealthHandler
//
// Handlers decode and validate input through middleware.Validator, call the
// service layer and render errors as RFC 7807 problems.
package http
