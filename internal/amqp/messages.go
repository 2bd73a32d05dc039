package amqp

import (
	"encoding/json"
	"time"
)

// ConsistencyAlertMessage flags a wallet that could not be kept in lockstep
// with its ledger. It carries only the user id and the failed operation; the
// worker recomputes the balance from the database.
type ConsistencyAlertMessage struct {
	UserID    int64     `json:"user_id"`
	Op        string    `json:"op"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewConsistencyAlertMessage(userID int64, op, reason string) *ConsistencyAlertMessage {
	return &ConsistencyAlertMessage{
		UserID:    userID,
		Op:        op,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ConsistencyAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ConsistencyAlertMessageFromJSON creates a message from JSON bytes
func ConsistencyAlertMessageFromJSON(data []byte) (*ConsistencyAlertMessage, error) {
	var msg ConsistencyAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
