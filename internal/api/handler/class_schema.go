package handler

type classRequest struct {
	Name     string  `json:"name"      validate:"required,max=200"`
	Price    float64 `json:"price"     validate:"gte=0"`
	Seats    int     `json:"seats"     validate:"gte=0"`
	ImageURL string  `json:"image_url" validate:"omitempty,url"`
}

type classStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved denied"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=2000"`
}
