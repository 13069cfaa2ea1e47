package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookpay/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationPaymentApproved NotificationType = "PAYMENT_APPROVED"
	NotificationPaymentFailed   NotificationType = "PAYMENT_FAILED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client
	// - Email client
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyPaymentApproved notifies the customer of an authorized payment.
func (s *NotificationService) NotifyPaymentApproved(ctx context.Context, txn *domain.Transaction, userID string) error {
	notification := Notification{
		Type:        NotificationPaymentApproved,
		RecipientID: userID,
		Title:       "Payment Approved",
		Message:     fmt.Sprintf("Payment of %s %s was approved", txn.Amount.StringFixed(2), txn.Currency),
		Data: map[string]interface{}{
			"reference": txn.Reference,
			"amount":    txn.Amount.StringFixed(2),
			"currency":  txn.Currency,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentFailed notifies the customer of a declined or failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, txn *domain.Transaction, userID string) error {
	notification := Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: userID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of %s %s did not complete: %s", txn.Amount.StringFixed(2), txn.Currency, txn.FailureReason),
		Data: map[string]interface{}{
			"reference": txn.Reference,
			"reason":    txn.FailureReason,
			"status":    string(txn.Status),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
