// Package http implements the HTTP handlers of the dashboard read API. Handlers
// stay thin: they validate path and query parameters, call the data service and
// map its errors to RFC 7807 problem responses.
//
// # Routes
//
// Mounted under /api by the application router:
//
//	GET  /health             liveness summary
//	GET  /health/ready       503 until fused tables are loaded
//	GET  /tables             both tables, with ETag
//	GET  /tables/geo         geographic table, with ETag
//	GET  /tables/timeline    tidy timeline table, with ETag
//	GET  /map/{column}       choropleth input for one column
//	GET  /scatter            scatter and box plot input (?party=&term=)
//	GET  /compare/{term}     pooled t-test between the winner groups
//	POST /reload             re-read the persisted tables
//
// Table responses honour If-None-Match. A comparison that cannot be computed
// answers 422, reads before the first load answer 503.
package http
