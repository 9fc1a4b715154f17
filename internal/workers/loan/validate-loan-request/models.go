// internal/workers/loan/validate-loan-request/models.go
package validateloanrequest

import (
	"context"

	"crediflow/internal/models"
)

type Input struct {
	LoanRequest map[string]interface{} `json:"loanRequest"`
}

type Output struct {
	ToolResponse *models.AgentToolResponse `json:"toolResponse"`
}

// ProfileFinder is satisfied by *profilestore.Client.
type ProfileFinder interface {
	Find(ctx context.Context, phoneNumber string) (*models.CustomerProfile, error)
}
