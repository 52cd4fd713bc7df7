// Package api hosts the read-only HTTP server over the scraped datasets.
// Routes:
//   - GET /healthz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/sources lists datasets and whether they have been written.
//   - GET /v1/sources/{name} and /v1/sources/{name}.csv return a dataset as written.
package api
