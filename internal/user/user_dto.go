package user

type CreateUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Name      string  `json:"name" binding:"required"`
	Password  string  `json:"password" binding:"required,min=6"`
	Role      string  `json:"role" binding:"required"`
	ManagerID *string `json:"manager_id"`
}

type UpdateUserRequest struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	ManagerID *string `json:"manager_id"`
	IsActive  *bool   `json:"is_active"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	CompanyID string  `json:"company_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	ManagerID *string `json:"manager_id,omitempty"`
	IsActive  bool    `json:"is_active"`
}
