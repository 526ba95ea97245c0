package dto

// IDRequest binds a numeric `:id` path parameter.
type IDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type MessageResponse struct {
	Message string `json:"message"`
	// Redirect names the page a browser client should move to next.
	Redirect string `json:"redirect,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
