package company

type UpdateCompanyRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
}

type CompanyResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	AdminID  string `json:"admin_id,omitempty"`
}
