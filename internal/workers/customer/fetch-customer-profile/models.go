// internal/workers/customer/fetch-customer-profile/models.go
package fetchcustomerprofile

import (
	"context"

	"crediflow/internal/models"
)

type Input struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Output is merged into the process variables; the agent reads
// toolResponse.
type Output struct {
	ToolResponse *models.AgentToolResponse `json:"toolResponse"`
}

// ProfileFinder is satisfied by *profilestore.Client.
type ProfileFinder interface {
	Find(ctx context.Context, phoneNumber string) (*models.CustomerProfile, error)
}
