package set_rule_active

// SetActiveRequest HTTP request model
type SetActiveRequest struct {
	Active *bool `json:"active"`
}
