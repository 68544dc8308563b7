package handler

type stripePaymentRequest struct {
	CompanyID  string `json:"companyId"`
	ShipmentID string `json:"shipmentId" validate:"required"`
	Amount     int64  `json:"amount"     validate:"gt=0"`
	Currency   string `json:"currency"   validate:"omitempty,len=3"`
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl"  validate:"required,url"`
}

type stripePaymentResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type mpesaPaymentRequest struct {
	CompanyID  string `json:"companyId"`
	ShipmentID string `json:"shipmentId" validate:"required"`
	Phone      string `json:"phone"      validate:"required,min=9,max=15"`
	Amount     int64  `json:"amount"     validate:"gt=0"`
}

type mpesaPaymentResponse struct {
	Started           bool   `json:"started"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	CustomerMessage   string `json:"customerMessage,omitempty"`
}

type webhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}
