package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

var (
	ErrInvalidTransition = errors.New("invalid verification status transition")
	ErrDocumentNotFound  = errors.New("document not found")
)

type VerificationStatus string

const (
	VerificationStatusPending     VerificationStatus = "pending"
	VerificationStatusUnderReview VerificationStatus = "under_review"
	VerificationStatusApproved    VerificationStatus = "approved"
	VerificationStatusRejected    VerificationStatus = "rejected"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusUnderReview,
		VerificationStatusApproved, VerificationStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// VerificationChecklist 서류 검증 체크리스트
type VerificationChecklist struct {
	BusinessLicense     bool `gorm:"default:false" json:"business_license"`
	Accreditation       bool `gorm:"default:false" json:"accreditation"`
	ContactVerification bool `gorm:"default:false" json:"contact_verification"`
	AddressVerification bool `gorm:"default:false" json:"address_verification"`
	WebsiteVerification bool `gorm:"default:false" json:"website_verification"`
}

// MarkVerified flips the flag mapped to the document type.
// Only business licenses and accreditation documents are mapped.
func (c *VerificationChecklist) MarkVerified(t DocumentType) bool {
	switch t {
	case DocumentTypeBusinessLicense:
		c.BusinessLicense = true
		return true
	case DocumentTypeAccreditation:
		c.Accreditation = true
		return true
	}
	return false
}

// UniversityRegistration is the raw registration payload, kept verbatim
// for account provisioning after approval.
type UniversityRegistration struct {
	ID             string   `json:"id,omitempty"`
	CollegeName    string   `json:"college_name"`
	Email          string   `json:"email"`
	Address1       string   `json:"address1"`
	Address2       string   `json:"address2,omitempty"`
	Country        string   `json:"country"`
	City           string   `json:"city"`
	Postcode       string   `json:"postcode"`
	Phone1         string   `json:"phone1"`
	Phone2         string   `json:"phone2,omitempty"`
	Documents      []string `json:"documents"`
	FieldOfStudies []string `json:"field_of_studies"`
	CampusImage    string   `json:"campus_image"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	Password       string   `json:"password,omitempty"`
}

// AdminName joins first and last name of the registering administrator.
func (r UniversityRegistration) AdminName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// UploadedFile describes a file attached to a registration
type UploadedFile struct {
	Name string `json:"name" binding:"required"`
	Size int64  `json:"size"`
}

// VerificationRequest 대학 인증 요청 모델
type VerificationRequest struct {
	ID             string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UniversityID   string `gorm:"type:varchar(64);not null;index" json:"university_id"`
	UniversityName string `gorm:"type:varchar(255);not null" json:"university_name"`
	AdminEmail     string `gorm:"type:varchar(255);not null;index" json:"admin_email"`
	AdminName      string `gorm:"type:varchar(255)" json:"admin_name"`

	Status          VerificationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Priority        Priority           `gorm:"type:varchar(10);default:'medium';index" json:"priority"`
	SubmittedAt     time.Time          `gorm:"not null;index" json:"submitted_at"`
	ReviewStartedAt *time.Time         `json:"review_started_at,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy      string             `gorm:"type:varchar(64)" json:"reviewed_by,omitempty"`

	// 결정 정보 (승인/반려 시에만 기록)
	ReviewNotes     string         `gorm:"type:text" json:"review_notes,omitempty"`
	Conditions      pq.StringArray `gorm:"type:text[]" json:"conditions,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`

	VerificationChecklist VerificationChecklist                     `gorm:"embedded;embeddedPrefix:checklist_" json:"verification_checklist"`
	UniversityData        datatypes.JSONType[UniversityRegistration] `json:"university_data"`

	Documents []Document `gorm:"foreignKey:VerificationRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"documents"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}

// StartReview moves a pending request into review. Re-entering review
// re-stamps the reviewer and start time.
func (r *VerificationRequest) StartReview(reviewerID string, at time.Time) error {
	if r.Status != VerificationStatusPending && r.Status != VerificationStatusUnderReview {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, VerificationStatusUnderReview)
	}
	r.Status = VerificationStatusUnderReview
	r.ReviewStartedAt = &at
	r.ReviewedBy = reviewerID
	return nil
}

// Approve closes the request as approved.
func (r *VerificationRequest) Approve(reviewerID, notes string, conditions []string, at time.Time) error {
	if err := r.checkDecidable(VerificationStatusApproved); err != nil {
		return err
	}
	r.Status = VerificationStatusApproved
	r.ReviewedAt = &at
	r.ReviewedBy = reviewerID
	r.ReviewNotes = notes
	r.Conditions = conditions
	return nil
}

// Reject closes the request as rejected; the notes become the rejection reason.
func (r *VerificationRequest) Reject(reviewerID, notes string, at time.Time) error {
	if err := r.checkDecidable(VerificationStatusRejected); err != nil {
		return err
	}
	r.Status = VerificationStatusRejected
	r.ReviewedAt = &at
	r.ReviewedBy = reviewerID
	r.ReviewNotes = notes
	r.RejectionReason = notes
	return nil
}

func (r *VerificationRequest) checkDecidable(to VerificationStatus) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	return nil
}

// ApplyDocumentStatus replaces the matching document in a copy of the
// document list and updates the checklist when the document is verified.
func (r *VerificationRequest) ApplyDocumentStatus(documentID string, status DocumentStatus, notes string) (*Document, error) {
	idx := -1
	for i := range r.Documents {
		if r.Documents[i].ID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	docs := make([]Document, len(r.Documents))
	copy(docs, r.Documents)
	docs[idx].Status = status
	docs[idx].ReviewNotes = notes
	r.Documents = docs

	if status == DocumentStatusVerified {
		r.VerificationChecklist.MarkVerified(docs[idx].Type)
	}

	updated := docs[idx]
	return &updated, nil
}
