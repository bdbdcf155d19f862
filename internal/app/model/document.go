package model

import (
	"strings"
	"time"
)

type DocumentType string

const (
	DocumentTypeBusinessLicense DocumentType = "business_license"
	DocumentTypeAccreditation   DocumentType = "accreditation"
	DocumentTypeTaxCertificate  DocumentType = "tax_certificate"
	DocumentTypeOther           DocumentType = "other"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

func (s DocumentStatus) IsValid() bool {
	return s == DocumentStatusPending || s == DocumentStatusVerified || s == DocumentStatusRejected
}

// Document 인증 요청에 첨부된 서류
type Document struct {
	ID                    string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	VerificationRequestID string         `gorm:"type:varchar(64);not null;index" json:"-"`
	Position              int            `gorm:"not null;default:0" json:"-"` // 제출 순서
	Type                  DocumentType   `gorm:"type:varchar(30);not null" json:"type"`
	Name                  string         `gorm:"type:varchar(255);not null" json:"name"`
	URL                   string         `gorm:"type:text;not null" json:"url"`
	Size                  int64          `json:"size"`
	Status                DocumentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ReviewNotes           string         `gorm:"type:text" json:"review_notes,omitempty"`
	UploadedAt            time.Time      `json:"uploaded_at"`
}

func (Document) TableName() string {
	return "verification_documents"
}

// InferDocumentType classifies an uploaded file by a case-insensitive
// substring match on its name.
func InferDocumentType(filename string) DocumentType {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "license"):
		return DocumentTypeBusinessLicense
	case strings.Contains(name, "accreditation"):
		return DocumentTypeAccreditation
	case strings.Contains(name, "tax"):
		return DocumentTypeTaxCertificate
	default:
		return DocumentTypeOther
	}
}
