// Package api serves categories, the category tree and the analysis report
// over HTTP.
//
// # Routes
//
//	GET    /health
//	GET    /metrics                              Prometheus exposition, when enabled
//	GET    /api/categories?page=&page_size=      paginated list ordered by id
//	POST   /api/categories                       create
//	GET    /api/categories/tree                  nested forest
//	GET    /api/categories/analysis              islands and longest rabbit hole
//	GET    /api/categories/{id}                  detail with similar_count
//	DELETE /api/categories/{id}
//	PATCH  /api/categories/{id}/move             {"parent_id": 7} or {"parent_id": null}
//	GET    /api/categories/{id}/similar          linked ids
//	POST   /api/categories/{id}/similarity       {"category_id": 9}
//	DELETE /api/categories/{id}/similarity       {"category_id": 9}
//
// The analysis route accepts workers, sample_size and refresh query
// parameters and returns the report of [analyze.Report]. Every run carries a
// fresh run id, echoed in the X-Run-ID header.
//
// # Errors
//
// Failures are written as {"error": message, "code": CODE} with the status
// chosen by [errors.HTTPStatus]: validation errors are 400, unknown
// categories 404, and an unreachable store 503.
package api
