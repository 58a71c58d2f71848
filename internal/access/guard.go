// Package access decides whether a caller may act on an assessment.
package access

import "video-quiz-service/internal/domain"

// Capability names the operation a caller wants to perform.
type Capability string

const (
	CapabilityView   Capability = "view"
	CapabilitySubmit Capability = "submit"
)

// Authorize checks callerID against the owner of an already-loaded assessment.
// Ownership is the only rule; there is no sharing and there are no roles.
func Authorize(callerID string, a *domain.Assessment, _ Capability) error {
	if callerID == "" {
		return domain.ErrUnauthenticated
	}
	if a == nil || callerID != a.OwnerID() {
		return domain.ErrForbidden
	}
	return nil
}
