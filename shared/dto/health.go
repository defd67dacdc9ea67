package dto

// HealthResponse describes the payload returned by the /healthz endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	// Mode reports which quest source is active: "gemini" or "fallback".
	Mode string `json:"mode,omitempty"`
}
