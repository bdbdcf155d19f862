package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/internal/app/service"
	apperrors "github.com/commonapply/verification-backend/internal/errors"
	"github.com/commonapply/verification-backend/internal/middleware"
	"github.com/commonapply/verification-backend/internal/report"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportSnapshots exposes the report kept by the scheduler
type ReportSnapshots interface {
	Latest() *service.VerificationReport
}

// VerificationController 대학 인증 컨트롤러
type VerificationController struct {
	service   service.VerificationService
	snapshots ReportSnapshots
}

// NewVerificationController 대학 인증 컨트롤러 생성자. snapshots may be nil.
func NewVerificationController(service service.VerificationService, snapshots ReportSnapshots) *VerificationController {
	return &VerificationController{
		service:   service,
		snapshots: snapshots,
	}
}

// SubmitVerificationRequest is the registration payload plus the
// descriptors of the uploaded documents.
type SubmitVerificationRequest struct {
	model.UniversityRegistration
	Files []model.UploadedFile `json:"files" binding:"dive"`
}

type ReviewDocumentRequest struct {
	Status      model.DocumentStatus `json:"status" binding:"required,document_status"`
	ReviewNotes string               `json:"review_notes"`
}

// respondVerificationError maps service errors to API responses
func respondVerificationError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, service.ErrVerificationNotFound):
		apperrors.NotFound(c, apperrors.VerificationNotFound, "Verification request not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		apperrors.NotFound(c, apperrors.DocumentNotFound, "Document not found")
	case errors.Is(err, service.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.VerificationInvalidTransition, "This verification request has already been decided")
	case errors.Is(err, service.ErrDuplicateSubmission):
		apperrors.Conflict(c, apperrors.VerificationDuplicate, "This university already has an open or approved verification request")
	case errors.Is(err, service.ErrInvalidDecision):
		apperrors.BadRequest(c, apperrors.VerificationInvalidDecision, "Decision must be approve or reject")
	case errors.Is(err, service.ErrInvalidDocumentStatus):
		apperrors.BadRequest(c, apperrors.DocumentInvalidStatus, "Document status must be pending, verified or rejected")
	case errors.Is(err, service.ErrInvalidRegistration):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "College name and email are required")
	default:
		log := middleware.GetLoggerFromContext(c)
		log.Error("Verification request failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.ParseAndRespond(c, err, context)
	}
}

// Submit POST /api/v1/verifications
func (ctrl *VerificationController) Submit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verification submission", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	id, err := ctrl.service.SubmitVerificationRequest(c.Request.Context(), req.UniversityRegistration, req.Files)
	if err != nil {
		respondVerificationError(c, err, "submit verification")
		return
	}

	log.Info("Verification request submitted", map[string]interface{}{
		"request_id":  id,
		"university":  req.CollegeName,
		"admin_email": req.Email,
		"documents":   len(req.Files),
	})

	c.JSON(http.StatusCreated, gin.H{
		"id": id,
	})
}

// GetUniversityStatus GET /api/v1/verifications/university/:university_id/status
func (ctrl *VerificationController) GetUniversityStatus(c *gin.Context) {
	universityID := c.Param("university_id")

	status, err := ctrl.service.GetUniversityVerificationStatus(c.Request.Context(), universityID)
	if err != nil {
		respondVerificationError(c, err, "verification status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"is_verified": status == model.VerificationStatusApproved,
	})
}

// List GET /api/v1/admin/verifications
func (ctrl *VerificationController) List(c *gin.Context) {
	filter := repository.VerificationFilter{
		Status:   model.VerificationStatus(c.Query("status")),
		Priority: model.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		apperrors.BadRequest(c, apperrors.VerificationInvalidStatus, fmt.Sprintf("Unknown status %q", filter.Status))
		return
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		apperrors.BadRequest(c, apperrors.VerificationInvalidPriority, fmt.Sprintf("Unknown priority %q", filter.Priority))
		return
	}

	requests, err := ctrl.service.GetVerificationRequests(c.Request.Context(), filter)
	if err != nil {
		respondVerificationError(c, err, "list verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// Get GET /api/v1/admin/verifications/:id
func (ctrl *VerificationController) Get(c *gin.Context) {
	req, err := ctrl.service.GetVerificationRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondVerificationError(c, err, "get verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": req,
	})
}

// StartReview POST /api/v1/admin/verifications/:id/review
func (ctrl *VerificationController) StartReview(c *gin.Context) {
	reviewerID, _ := middleware.GetUserID(c)
	id := c.Param("id")

	if err := ctrl.service.StartReview(c.Request.Context(), id, reviewerID); err != nil {
		respondVerificationError(c, err, "update verification")
		return
	}

	ctrl.respondWithRequest(c, id)
}

// Decide POST /api/v1/admin/verifications/:id/decision
func (ctrl *VerificationController) Decide(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var decision service.VerificationDecision
	if err := c.ShouldBindJSON(&decision); err != nil {
		log.Warn("Invalid verification decision", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.VerificationInvalidDecision, "Decision must be approve or reject")
		return
	}

	reviewerID, _ := middleware.GetUserID(c)
	id := c.Param("id")

	if err := ctrl.service.UpdateVerificationStatus(c.Request.Context(), id, decision, reviewerID); err != nil {
		respondVerificationError(c, err, "update verification")
		return
	}

	log.Info("Verification decided", map[string]interface{}{
		"request_id":  id,
		"decision":    decision.Decision,
		"reviewer_id": reviewerID,
	})

	ctrl.respondWithRequest(c, id)
}

// ReviewDocument PUT /api/v1/admin/verifications/:id/documents/:document_id
func (ctrl *VerificationController) ReviewDocument(c *gin.Context) {
	var req ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.DocumentInvalidStatus, "Document status must be pending, verified or rejected")
		return
	}

	updated, err := ctrl.service.UpdateDocumentStatus(
		c.Request.Context(),
		c.Param("id"),
		c.Param("document_id"),
		req.Status,
		req.ReviewNotes,
	)
	if err != nil {
		respondVerificationError(c, err, "update document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": updated,
	})
}

func (ctrl *VerificationController) respondWithRequest(c *gin.Context, id string) {
	req, err := ctrl.service.GetVerificationRequest(c.Request.Context(), id)
	if err != nil {
		respondVerificationError(c, err, "get verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": req,
	})
}

// Report GET /api/v1/admin/verifications/report
func (ctrl *VerificationController) Report(c *gin.Context) {
	r, err := ctrl.service.GenerateVerificationReport(c.Request.Context())
	if err != nil {
		respondVerificationError(c, err, "generate report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": r,
	})
}

// LatestReport GET /api/v1/admin/verifications/report/latest
func (ctrl *VerificationController) LatestReport(c *gin.Context) {
	var latest *service.VerificationReport
	if ctrl.snapshots != nil {
		latest = ctrl.snapshots.Latest()
	}
	if latest == nil {
		apperrors.NotFound(c, apperrors.ReportNotReady, "No scheduled report has been generated yet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": latest,
	})
}

// ExportReport GET /api/v1/admin/verifications/report.xlsx
func (ctrl *VerificationController) ExportReport(c *gin.Context) {
	summary, requests, err := ctrl.service.ExportVerificationReport(c.Request.Context())
	if err != nil {
		respondVerificationError(c, err, "export report")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteVerificationWorkbook(&buf, summary, requests); err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to write verification workbook", err)
		apperrors.InternalError(c, "Could not generate the report. Please try again later")
		return
	}

	filename := fmt.Sprintf("verification-report-%s.xlsx", summary.GeneratedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
