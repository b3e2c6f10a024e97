package api

// PlaceInfoRequest represents the request payload for place information
type PlaceInfoRequest struct {
	Place string `json:"place" validate:"required"`
}

// PlaceInfoResponse represents the response payload for place information
type PlaceInfoResponse struct {
	Place       string `json:"place"`
	Information string `json:"information"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
