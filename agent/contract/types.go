package contract

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// CallOutcome describes how a finished call left its order.
type CallOutcome struct {
	CallID      string    `json:"call_id"`
	SessionID   string    `json:"session_id"`
	OrderID     string    `json:"order_id"`
	Phone       string    `json:"phone"`
	FinalState  string    `json:"final_state"`
	OrderStatus string    `json:"order_status"`
	Abandoned   bool      `json:"abandoned"`
	Turns       int       `json:"turns"`
	Summary     string    `json:"summary,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

type SummaryRequest struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	FinalState   string `json:"final_state"`
	OrderStatus  string `json:"order_status"`
	Turns        []Turn `json:"turns"`
}

type SummaryResponse struct {
	Summary        string `json:"summary"`
	FollowUpNeeded bool   `json:"follow_up_needed"`
}
