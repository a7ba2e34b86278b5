// internal/services/notification_service.go
package services

import (
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

// NotificationService persists in-app notifications and dispatches
// best-effort emails. The in-app row is the durable record; email failure
// is logged and never propagated, so a flaky SMTP relay cannot fail a
// lifecycle transition.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Notify persists the in-app notification for the user and sends a
// matching email when an address is known. Callers that already hold the
// recipient (fetched as part of a precondition read) should pass it via
// NotifyUser instead of forcing a second lookup.
func (s *NotificationService) Notify(userID uuid.UUID, ntype models.NotificationType, message string, data models.JSONB) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Message: message,
		Data:    data,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err == nil {
		s.sendEmailBestEffort(user.Email, subjectFor(ntype), message)
	}

	return nil
}

// NotifyUser is Notify for a recipient already in hand.
func (s *NotificationService) NotifyUser(user *models.User, ntype models.NotificationType, message string, data models.JSONB) error {
	notification := &models.Notification{
		UserID:  user.ID,
		Type:    ntype,
		Message: message,
		Data:    data,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.sendEmailBestEffort(user.Email, subjectFor(ntype), message)
	return nil
}

func (s *NotificationService) ListForUser(userID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead flips the read flag on a notification owned by userID.
func (s *NotificationService) MarkRead(notificationID, userID uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) Delete(notificationID, userID uuid.UUID) error {
	res := s.db.
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// sendEmailBestEffort never returns an error: delivery problems are
// logged and swallowed.
func (s *NotificationService) sendEmailBestEffort(to, subject, body string) {
	if err := s.sendEmail(to, subject, body); err != nil {
		logrus.WithError(err).WithField("to", to).Warn("Email delivery failed")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("Email skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s <%s>\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		to, s.config.Email.FromName, s.config.Email.FromEmail, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func subjectFor(ntype models.NotificationType) string {
	switch ntype {
	case models.NotificationListingSubmitted:
		return "Your car listing was received"
	case models.NotificationVerificationAssigned:
		return "New car assigned for verification"
	case models.NotificationVerificationStarted:
		return "Your car is under verification"
	case models.NotificationListingApproved:
		return "Your car listing is live"
	case models.NotificationListingRejected:
		return "Your car listing was rejected"
	case models.NotificationVerificationExpired:
		return "Verification window expired"
	case models.NotificationPurchaseConfirmed:
		return "Purchase confirmation"
	case models.NotificationSaleRecorded:
		return "Car sold"
	case models.NotificationPurchaseCancelled:
		return "Purchase cancelled"
	default:
		return "WheelDeal notification"
	}
}
