package testutil

import (
	"cgbot/models"
)

// CreateTestModCase creates a case with default values
func CreateTestModCase(action models.ModAction, targetID, moderatorID int64) *models.ModCase {
	return &models.ModCase{
		Action:        action,
		TargetID:      targetID,
		TargetName:    "target",
		ModeratorID:   moderatorID,
		ModeratorName: "moderator",
		Reason:        "test reason",
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestModCaseWithReason creates a case with a specific reason
func CreateTestModCaseWithReason(action models.ModAction, targetID, moderatorID int64, reason string) *models.ModCase {
	modCase := CreateTestModCase(action, targetID, moderatorID)
	modCase.Reason = reason
	return modCase
}
