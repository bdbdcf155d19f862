package repository

import (
	"context"
	"testing"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupVerificationTest(t *testing.T) (*gorm.DB, VerificationRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return testDB, NewVerificationRepository(testDB)
}

func newTestRequest(id, universityID, name, email, adminName string, status model.VerificationStatus, submittedAt time.Time) *model.VerificationRequest {
	return &model.VerificationRequest{
		ID:             id,
		UniversityID:   universityID,
		UniversityName: name,
		AdminEmail:     email,
		AdminName:      adminName,
		Status:         status,
		Priority:       model.PriorityMedium,
		SubmittedAt:    submittedAt,
		UniversityData: datatypes.NewJSONType(model.UniversityRegistration{
			CollegeName: name,
			Email:       email,
		}),
		Documents: []model.Document{
			{ID: id + "-doc-1", Position: 0, Type: model.DocumentTypeBusinessLicense, Name: "license.pdf", URL: "/docs/license.pdf", Status: model.DocumentStatusPending},
			{ID: id + "-doc-2", Position: 1, Type: model.DocumentTypeOther, Name: "campus.png", URL: "/docs/campus.png", Status: model.DocumentStatusPending},
		},
	}
}

func TestVerificationRepository_CreateAndFind(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	req := newTestRequest("req-1", "uni-1", "Mekelle University", "admin@mu.edu.et", "Hagos Tesfay",
		model.VerificationStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, req))

	found, err := repo.FindByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Mekelle University", found.UniversityName)
	assert.Equal(t, model.VerificationStatusPending, found.Status)
	require.Len(t, found.Documents, 2)
	assert.Equal(t, "req-1-doc-1", found.Documents[0].ID)
	assert.Equal(t, "req-1-doc-2", found.Documents[1].ID)
	assert.Equal(t, "admin@mu.edu.et", found.UniversityData.Data().Email)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVerificationRepository_SaveKeepsDecision(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	req := newTestRequest("req-1", "uni-1", "Mekelle University", "admin@mu.edu.et", "Hagos",
		model.VerificationStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, req))

	require.NoError(t, req.Approve("admin-1", "ok", []string{"submit audit yearly"}, time.Now().UTC()))
	req.VerificationChecklist.BusinessLicense = true
	require.NoError(t, repo.Save(ctx, req))

	found, err := repo.FindByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, found.Status)
	assert.Equal(t, "admin-1", found.ReviewedBy)
	assert.Equal(t, []string{"submit audit yearly"}, []string(found.Conditions))
	assert.True(t, found.VerificationChecklist.BusinessLicense)
	assert.NotNil(t, found.ReviewedAt)
	assert.Len(t, found.Documents, 2)
}

func TestVerificationRepository_UpdateDocument(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	req := newTestRequest("req-1", "uni-1", "Mekelle University", "admin@mu.edu.et", "Hagos",
		model.VerificationStatusPending, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, req))

	doc := req.Documents[0]
	doc.Status = model.DocumentStatusRejected
	doc.ReviewNotes = "blurry scan"
	require.NoError(t, repo.UpdateDocument(ctx, &doc))

	found, err := repo.FindByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusRejected, found.Documents[0].Status)
	assert.Equal(t, "blurry scan", found.Documents[0].ReviewNotes)

	missing := model.Document{ID: "nope", VerificationRequestID: "req-1"}
	assert.ErrorIs(t, repo.UpdateDocument(ctx, &missing), gorm.ErrRecordNotFound)
}

func TestVerificationRepository_FindAll(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newTestRequest("req-1", "uni-1", "Mekelle University", "registrar@mu.edu.et", "Hagos Tesfay",
		model.VerificationStatusPending, base)))
	require.NoError(t, repo.Create(ctx, newTestRequest("req-2", "uni-2", "Addis Ababa University", "admin@aau.edu.et", "Sara Bekele",
		model.VerificationStatusApproved, base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestRequest("req-3", "uni-3", "Bahir Dar University", "office@bdu.edu.et", "Mekonnen Ali",
		model.VerificationStatusPending, base.Add(2*time.Hour))))

	tests := []struct {
		name    string
		filter  VerificationFilter
		wantIDs []string
	}{
		{"no filter newest first", VerificationFilter{}, []string{"req-3", "req-2", "req-1"}},
		{"by status", VerificationFilter{Status: model.VerificationStatusPending}, []string{"req-3", "req-1"}},
		{"search name case-insensitive", VerificationFilter{Search: "MEKELLE"}, []string{"req-1"}},
		{"search admin name", VerificationFilter{Search: "mekonnen"}, []string{"req-3"}},
		{"search email", VerificationFilter{Search: "aau.edu"}, []string{"req-2"}},
		{"by priority", VerificationFilter{Priority: model.PriorityHigh}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(requests))
			for _, r := range requests {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestVerificationRepository_FindLatestByUniversityID(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newTestRequest("req-old", "uni-1", "Mekelle University", "a@mu.edu.et", "",
		model.VerificationStatusRejected, base)))
	require.NoError(t, repo.Create(ctx, newTestRequest("req-new", "uni-1", "Mekelle University", "a@mu.edu.et", "",
		model.VerificationStatusPending, base.Add(24*time.Hour))))

	latest, err := repo.FindLatestByUniversityID(ctx, "uni-1")
	require.NoError(t, err)
	assert.Equal(t, "req-new", latest.ID)

	_, err = repo.FindLatestByUniversityID(ctx, "uni-404")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
