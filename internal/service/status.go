package service

import (
	"fmt"

	"github.com/washpoint/api/internal/enum"
)

// statusTransitions is the order workflow adjacency list. COMPLETED and
// CANCELED are terminal: no outgoing edges, and no self-transitions anywhere.
var statusTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusReceived, enum.OrderStatusCanceled},
	enum.OrderStatusReceived:   {enum.OrderStatusWashing, enum.OrderStatusCanceled},
	enum.OrderStatusWashing:    {enum.OrderStatusDrying, enum.OrderStatusCanceled},
	enum.OrderStatusDrying:     {enum.OrderStatusIroning, enum.OrderStatusCanceled},
	enum.OrderStatusIroning:    {enum.OrderStatusReady, enum.OrderStatusCanceled},
	enum.OrderStatusReady:      {enum.OrderStatusDelivering, enum.OrderStatusCompleted, enum.OrderStatusCanceled},
	enum.OrderStatusDelivering: {enum.OrderStatusCompleted, enum.OrderStatusCanceled},
	enum.OrderStatusCompleted:  {},
	enum.OrderStatusCanceled:   {},
}

// ValidateStatusTransition checks the workflow adjacency list and returns
// ErrInvalidTransition naming both statuses when the edge does not exist.
func ValidateStatusTransition(from, to string) error {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, from, to)
}

// IsFinalStatus reports whether a status is terminal.
func IsFinalStatus(status string) bool {
	return status == enum.OrderStatusCompleted || status == enum.OrderStatusCanceled
}

func isValidOrderStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}
