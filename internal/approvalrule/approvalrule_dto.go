package approvalrule

type ApproverStepRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Order  int    `json:"order"`
}

type SaveRuleRequest struct {
	Name                string                `json:"name" binding:"required"`
	IsManagerApprover   bool                  `json:"is_manager_approver"`
	Approvers           []ApproverStepRequest `json:"approvers" binding:"dive"`
	ConditionalType     string                `json:"conditional_type"`
	PercentageThreshold *int                  `json:"percentage_threshold"`
	SpecificApproverIDs []string              `json:"specific_approver_ids"`
}

type ApproverStepResponse struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Order    int    `json:"order"`
}

type RuleResponse struct {
	ID                  string                 `json:"id"`
	CompanyID           string                 `json:"company_id"`
	Name                string                 `json:"name"`
	IsManagerApprover   bool                   `json:"is_manager_approver"`
	Approvers           []ApproverStepResponse `json:"approvers"`
	ConditionalType     string                 `json:"conditional_type,omitempty"`
	PercentageThreshold *int                   `json:"percentage_threshold,omitempty"`
	SpecificApproverIDs []string               `json:"specific_approver_ids,omitempty"`
}
