package dto

type CreatePlanRequest struct {
	Name         string   `json:"name"`
	Tag          string   `json:"tag"`
	Description  string   `json:"description"`
	MonthlyPrice float64  `json:"monthly_price"`
	AnnualPrice  float64  `json:"annual_price"`
	Features     []string `json:"features"`
	Popular      bool     `json:"popular"`
	Active       *bool    `json:"active"`
}

// UpdatePlanRequest uses pointers so omitted fields are left untouched.
type UpdatePlanRequest struct {
	Name         *string  `json:"name"`
	Tag          *string  `json:"tag"`
	Description  *string  `json:"description"`
	MonthlyPrice *float64 `json:"monthly_price"`
	AnnualPrice  *float64 `json:"annual_price"`
	Features     []string `json:"features"`
	Popular      *bool    `json:"popular"`
	Active       *bool    `json:"active"`
}
