package dto

// ErrorResponse cuerpo de error HTTP.
// Details lleva datos del conflicto (por ejemplo disponible/solicitado) cuando aplica.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
