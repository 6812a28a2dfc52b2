package outbox

// Topics routed by the dispatcher. Each topic maps to one sink.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderCancelled = "order.cancelled"
	TopicUserStats      = "user.stats"
)

// OrderNotification is the payload for order lifecycle topics
type OrderNotification struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

// UserStatsCredit bumps a user's aggregate order count and spend
type UserStatsCredit struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}
