package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferDocumentType(t *testing.T) {
	tests := []struct {
		filename string
		want     DocumentType
	}{
		{"Business_License_2024.pdf", DocumentTypeBusinessLicense},
		{"Accreditation.docx", DocumentTypeAccreditation},
		{"Tax_Cert.png", DocumentTypeTaxCertificate},
		{"random.pdf", DocumentTypeOther},
		{"OPERATING-LICENSE.JPG", DocumentTypeBusinessLicense},
		{"", DocumentTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDocumentType(tt.filename))
		})
	}
}

func newPendingRequest() *VerificationRequest {
	return &VerificationRequest{
		ID:     "req-1",
		Status: VerificationStatusPending,
		Documents: []Document{
			{ID: "doc-license", Type: DocumentTypeBusinessLicense, Status: DocumentStatusPending},
			{ID: "doc-accr", Type: DocumentTypeAccreditation, Status: DocumentStatusPending},
			{ID: "doc-tax", Type: DocumentTypeTaxCertificate, Status: DocumentStatusPending},
		},
	}
}

func TestVerificationRequest_StartReview(t *testing.T) {
	req := newPendingRequest()
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, req.StartReview("reviewer-1", first))
	assert.Equal(t, VerificationStatusUnderReview, req.Status)
	assert.Equal(t, "reviewer-1", req.ReviewedBy)
	require.NotNil(t, req.ReviewStartedAt)
	assert.Equal(t, first, *req.ReviewStartedAt)

	second := first.Add(time.Hour)
	require.NoError(t, req.StartReview("reviewer-2", second))
	assert.Equal(t, VerificationStatusUnderReview, req.Status)
	assert.Equal(t, "reviewer-2", req.ReviewedBy)
	assert.Equal(t, second, *req.ReviewStartedAt)
}

func TestVerificationRequest_TerminalStatesRejectTransitions(t *testing.T) {
	now := time.Now()

	approved := newPendingRequest()
	require.NoError(t, approved.Approve("admin", "ok", []string{"annual audit"}, now))
	assert.Equal(t, VerificationStatusApproved, approved.Status)
	assert.Equal(t, []string{"annual audit"}, []string(approved.Conditions))

	assert.ErrorIs(t, approved.StartReview("admin", now), ErrInvalidTransition)
	assert.ErrorIs(t, approved.Reject("admin", "late", now), ErrInvalidTransition)
	assert.ErrorIs(t, approved.Approve("admin", "again", nil, now), ErrInvalidTransition)

	rejected := newPendingRequest()
	require.NoError(t, rejected.StartReview("admin", now))
	require.NoError(t, rejected.Reject("admin", "missing docs", now))
	assert.Equal(t, VerificationStatusRejected, rejected.Status)
	assert.Equal(t, "missing docs", rejected.RejectionReason)
	assert.Equal(t, "missing docs", rejected.ReviewNotes)
	assert.ErrorIs(t, rejected.StartReview("admin", now), ErrInvalidTransition)
}

func TestVerificationRequest_ApplyDocumentStatus(t *testing.T) {
	t.Run("verified license flips checklist", func(t *testing.T) {
		req := newPendingRequest()
		before := req.Documents

		doc, err := req.ApplyDocumentStatus("doc-license", DocumentStatusVerified, "looks valid")
		require.NoError(t, err)
		assert.Equal(t, DocumentStatusVerified, doc.Status)
		assert.Equal(t, "looks valid", doc.ReviewNotes)
		assert.True(t, req.VerificationChecklist.BusinessLicense)
		assert.False(t, req.VerificationChecklist.Accreditation)

		// the previous slice is left untouched
		assert.Equal(t, DocumentStatusPending, before[0].Status)
	})

	t.Run("verified tax certificate leaves checklist unchanged", func(t *testing.T) {
		req := newPendingRequest()

		_, err := req.ApplyDocumentStatus("doc-tax", DocumentStatusVerified, "")
		require.NoError(t, err)
		assert.Equal(t, VerificationChecklist{}, req.VerificationChecklist)
	})

	t.Run("rejected accreditation does not flip checklist", func(t *testing.T) {
		req := newPendingRequest()

		_, err := req.ApplyDocumentStatus("doc-accr", DocumentStatusRejected, "expired")
		require.NoError(t, err)
		assert.False(t, req.VerificationChecklist.Accreditation)
	})

	t.Run("unknown document", func(t *testing.T) {
		req := newPendingRequest()

		_, err := req.ApplyDocumentStatus("missing", DocumentStatusVerified, "")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestUniversityRegistration_AdminName(t *testing.T) {
	assert.Equal(t, "Abebe Kebede", UniversityRegistration{FirstName: "Abebe", LastName: "Kebede"}.AdminName())
	assert.Equal(t, "Abebe", UniversityRegistration{FirstName: "Abebe"}.AdminName())
	assert.Equal(t, "", UniversityRegistration{}.AdminName())
}
