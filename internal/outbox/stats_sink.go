package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sparkserve/bookingapi/internal/repository"
)

// StatsSink applies user aggregate updates recorded in the outbox. Keeping
// the update here rather than inline in order creation means a store hiccup
// after the order commit is retried instead of lost.
type StatsSink struct {
	users repository.UserRepository
}

// NewStatsSink creates a new stats sink
func NewStatsSink(users repository.UserRepository) *StatsSink {
	return &StatsSink{users: users}
}

func (s *StatsSink) Deliver(ctx context.Context, topic string, payload []byte) error {
	var credit UserStatsCredit
	if err := json.Unmarshal(payload, &credit); err != nil {
		return fmt.Errorf("decode stats payload: %w", err)
	}

	userID, err := uuid.Parse(credit.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id in stats payload: %w", err)
	}

	return s.users.IncrementOrderStats(ctx, userID, credit.Amount)
}
