package debate

import (
	"context"

	"github.com/xraph/debate/entitlement"
)

// QuestionLimit returns how many questions participantID may publish in
// resourceID: UpgradedQuestionLimit with QUESTION_LIMIT_10, otherwise
// DefaultQuestionLimit.
func (e *Engine) QuestionLimit(ctx context.Context, participantID, resourceID string) (int, error) {
	ok, err := e.HasAccess(ctx, participantID, resourceID, entitlement.FeatureQuestionLimit10)
	if err != nil {
		return 0, err
	}
	if ok {
		return UpgradedQuestionLimit, nil
	}
	return DefaultQuestionLimit, nil
}

// CanAddQuestion reports whether a participant holding currentCount
// questions may add another. Non-owners never may.
func (e *Engine) CanAddQuestion(ctx context.Context, participantID, sessionID string, currentCount int, isOwner bool) (bool, error) {
	if !isOwner {
		return false, nil
	}
	limit, err := e.QuestionLimit(ctx, participantID, entitlement.SessionResource(sessionID))
	if err != nil {
		return false, err
	}
	return canAddQuestion(currentCount, limit, isOwner), nil
}

func canAddQuestion(count, limit int, isOwner bool) bool {
	return isOwner && count < limit
}
