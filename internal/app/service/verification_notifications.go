package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
)

const (
	approvedActionURL     = "/admin/dashboard"
	universityStatusURL   = "/university/verification-status"
	resubmitActionURLFmt  = "/university/register?resubmit=%s"
	adminRequestActionFmt = "/system-admin/verifications/%s"
)

func adminRequestURL(requestID string) string {
	return fmt.Sprintf(adminRequestActionFmt, requestID)
}

func (s *verificationService) notification(req *model.VerificationRequest, t model.NotificationType, role model.RecipientRole, priority model.Priority, title, message, actionURL string, at time.Time) model.Notification {
	n := model.Notification{
		ID:                    s.newID(),
		Type:                  t,
		Title:                 title,
		Message:               message,
		RecipientRole:         role,
		VerificationRequestID: req.ID,
		Priority:              priority,
		ActionURL:             actionURL,
		CreatedAt:             at,
	}
	if role == model.RecipientRoleUniversity {
		n.RecipientID = req.UniversityID
	}
	return n
}

func (s *verificationService) submittedNotifications(req *model.VerificationRequest, at time.Time) []model.Notification {
	return []model.Notification{
		s.notification(req, model.NotificationTypeNewRequest, model.RecipientRoleAdmin, req.Priority,
			"New University Verification Request",
			fmt.Sprintf("%s has submitted a verification request with %d document(s).", req.UniversityName, len(req.Documents)),
			adminRequestURL(req.ID), at),
		s.notification(req, model.NotificationTypeStatusUpdate, model.RecipientRoleUniversity, model.PriorityMedium,
			"Verification Request Submitted",
			"Your verification request has been received. Our team will review your documents within 2-3 business days.",
			universityStatusURL, at),
	}
}

func (s *verificationService) reviewStartedNotification(req *model.VerificationRequest, at time.Time) model.Notification {
	return s.notification(req, model.NotificationTypeStatusUpdate, model.RecipientRoleUniversity, model.PriorityMedium,
		"Verification Under Review",
		"Your verification request is now being reviewed by our team.",
		universityStatusURL, at)
}

func (s *verificationService) decisionNotifications(req *model.VerificationRequest, at time.Time) []model.Notification {
	if req.Status == model.VerificationStatusApproved {
		message := "Congratulations! Your university has been verified. You now have full access to the admin dashboard."
		if len(req.Conditions) > 0 {
			message += " Conditions: " + strings.Join(req.Conditions, "; ")
		}
		return []model.Notification{
			s.notification(req, model.NotificationTypeApproval, model.RecipientRoleUniversity, model.PriorityHigh,
				"University Verified!", message, approvedActionURL, at),
			s.notification(req, model.NotificationTypeApproval, model.RecipientRoleAdmin, model.PriorityLow,
				"University Approved",
				fmt.Sprintf("%s was approved by %s.", req.UniversityName, req.ReviewedBy),
				adminRequestURL(req.ID), at),
		}
	}

	message := "Your verification request was not approved."
	if req.RejectionReason != "" {
		message += " Feedback: " + req.RejectionReason
	}
	message += " You can correct the issues and resubmit your registration."

	return []model.Notification{
		s.notification(req, model.NotificationTypeRejection, model.RecipientRoleUniversity, model.PriorityHigh,
			"Verification Not Approved", message, fmt.Sprintf(resubmitActionURLFmt, req.ID), at),
		s.notification(req, model.NotificationTypeRejection, model.RecipientRoleAdmin, model.PriorityLow,
			"University Rejected",
			fmt.Sprintf("%s was rejected by %s.", req.UniversityName, req.ReviewedBy),
			adminRequestURL(req.ID), at),
	}
}

func (s *verificationService) documentRejectedNotification(req *model.VerificationRequest, doc *model.Document, at time.Time) model.Notification {
	label := strings.ReplaceAll(string(doc.Type), "_", " ")
	message := fmt.Sprintf("Your %s document (%s) was rejected.", label, doc.Name)
	if doc.ReviewNotes != "" {
		message += " Notes: " + doc.ReviewNotes
	}
	message += " Please upload a replacement."

	return s.notification(req, model.NotificationTypeDocumentRequired, model.RecipientRoleUniversity, model.PriorityHigh,
		"Document Required", message, universityStatusURL, at)
}
