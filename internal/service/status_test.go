package service

import (
	"errors"
	"testing"

	"github.com/washpoint/api/internal/enum"
)

func TestValidateStatusTransition_HappyPath(t *testing.T) {
	chain := []string{
		enum.OrderStatusPending,
		enum.OrderStatusReceived,
		enum.OrderStatusWashing,
		enum.OrderStatusDrying,
		enum.OrderStatusIroning,
		enum.OrderStatusReady,
		enum.OrderStatusDelivering,
		enum.OrderStatusCompleted,
	}
	for i := 1; i < len(chain); i++ {
		if err := ValidateStatusTransition(chain[i-1], chain[i]); err != nil {
			t.Errorf("%s -> %s should be valid: %v", chain[i-1], chain[i], err)
		}
	}
}

func TestValidateStatusTransition_ReadyShortcuts(t *testing.T) {
	// Walk-in customers collect at the counter, skipping DELIVERING.
	if err := ValidateStatusTransition(enum.OrderStatusReady, enum.OrderStatusCompleted); err != nil {
		t.Errorf("READY -> COMPLETED should be valid: %v", err)
	}
}

func TestValidateStatusTransition_CancelFromAnyActive(t *testing.T) {
	active := []string{
		enum.OrderStatusPending,
		enum.OrderStatusReceived,
		enum.OrderStatusWashing,
		enum.OrderStatusDrying,
		enum.OrderStatusIroning,
		enum.OrderStatusReady,
		enum.OrderStatusDelivering,
	}
	for _, from := range active {
		if err := ValidateStatusTransition(from, enum.OrderStatusCanceled); err != nil {
			t.Errorf("%s -> CANCELED should be valid: %v", from, err)
		}
	}
}

func TestValidateStatusTransition_Invalid(t *testing.T) {
	cases := []struct{ from, to string }{
		{enum.OrderStatusPending, enum.OrderStatusWashing},   // skipping a stage
		{enum.OrderStatusWashing, enum.OrderStatusReceived},  // going backwards
		{enum.OrderStatusCompleted, enum.OrderStatusPending}, // out of terminal
		{enum.OrderStatusCompleted, enum.OrderStatusCanceled},
		{enum.OrderStatusCanceled, enum.OrderStatusPending},
		{enum.OrderStatusWashing, enum.OrderStatusWashing}, // self transition
		{enum.OrderStatusPending, "SHIPPED"},               // unknown status
	}
	for _, tc := range cases {
		err := ValidateStatusTransition(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got: %v", tc.from, tc.to, err)
		}
	}
}

func TestIsFinalStatus(t *testing.T) {
	if !IsFinalStatus(enum.OrderStatusCompleted) || !IsFinalStatus(enum.OrderStatusCanceled) {
		t.Error("COMPLETED and CANCELED are terminal")
	}
	for _, s := range []string{enum.OrderStatusPending, enum.OrderStatusReady, enum.OrderStatusDelivering} {
		if IsFinalStatus(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	if !isValidOrderStatus(enum.OrderStatusDrying) {
		t.Error("DRYING is a known status")
	}
	if isValidOrderStatus("drying") || isValidOrderStatus("SHIPPED") || isValidOrderStatus("") {
		t.Error("unknown statuses must be rejected")
	}
}
