package dto

type ErrorResponse struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

// SectionError marks one dashboard section as unavailable while its siblings
// rendered. The dashboard shows it as a retryable error state, visually
// distinct from a zero metric.
type SectionError struct {
	Code    string `json:"code" example:"upstream_unavailable"`
	Message string `json:"message" example:"event store unreachable"`
}
