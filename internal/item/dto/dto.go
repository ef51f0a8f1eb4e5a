package dto

// ItemDTO is the write payload for both Create and Update. Exactly these
// four keys are accepted; anything else in the request body is dropped.
type ItemDTO struct {
	Name        string   `json:"name"        validate:"required,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"    validate:"omitempty,max=255"`
}
