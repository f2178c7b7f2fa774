package services

// MedicineInput is the raw form data for a new medicine.
type MedicineInput struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Price      float64 `json:"price" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"gte=0"`
	ExpiryDate string  `json:"expiry_date" validate:"required,isodate"`
}

// SupplierInput is the raw form data for a new supplier.
type SupplierInput struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Contact  string   `json:"contact" validate:"required,max=255"`
	Supplies []string `json:"supplies" validate:"dive,required,max=255"`
}
