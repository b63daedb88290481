package services

import (
	"github.com/annolab/assessment-service/internal/models"
)

// ApplyStatusTransition computes the role statuses that result from a
// scored submission. Only annotator_qualification outcomes move statuses;
// every other assessment type leaves them untouched.
//
// On a pass the annotator role is approved and the micro tasker role is
// promoted only from pending. On a fail the annotator role is rejected
// while the micro tasker role is approved regardless of its prior value,
// so a failed qualification still admits the user to micro work.
func ApplyStatusTransition(assessmentType models.AssessmentType, passed bool, before models.RoleStatusPair) models.RoleStatusPair {
	if assessmentType != models.TypeAnnotatorQualification {
		return before
	}

	after := before
	if passed {
		after.AnnotatorStatus = models.RoleStatusApproved
		if before.MicroTaskerStatus == models.RoleStatusPending {
			after.MicroTaskerStatus = models.RoleStatusApproved
		}
	} else {
		after.AnnotatorStatus = models.RoleStatusRejected
		after.MicroTaskerStatus = models.RoleStatusApproved
	}

	return after
}
