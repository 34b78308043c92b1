package handler

type selectionRequest struct {
	ClassID string `json:"class_id" query:"class_id" validate:"required"`
}

type paymentIntentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// confirmPaymentRequest carries the processor's outcome for a class. An empty
// transaction_id records a test payment that does not consume a seat.
type confirmPaymentRequest struct {
	ClassID       string  `json:"class_id"       validate:"required"`
	Price         float64 `json:"price"          validate:"gte=0"`
	TransactionID string  `json:"transaction_id" validate:"max=255"`
}
