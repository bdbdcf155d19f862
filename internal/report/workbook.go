package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Summary"
	RequestsSheet = "Requests"

	timestampLayout = "2006-01-02 15:04"
)

var requestColumns = []string{
	"Request ID", "University", "Admin Name", "Admin Email", "Status", "Priority",
	"Submitted At", "Reviewed At", "Reviewed By", "Documents", "Verified Documents",
	"Checklist", "Review Notes",
}

// WriteVerificationWorkbook writes the aggregate report and one row per
// request as an XLSX workbook.
func WriteVerificationWorkbook(w io.Writer, summary *service.VerificationReport, requests []model.VerificationRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RequestsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, summary, headerStyle); err != nil {
		return err
	}
	if err := writeRequests(f, requests, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, summary *service.VerificationReport, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Requests", summary.TotalRequests},
		{"Pending", summary.Pending},
		{"Under Review", summary.UnderReview},
		{"Approved", summary.Approved},
		{"Rejected", summary.Rejected},
		{"Average Review Time (days)", summary.AverageReviewTime},
		{"Document Verification Rate (%)", summary.DocumentVerificationRate},
		{"Generated At", summary.GeneratedAt.Format(timestampLayout)},
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 34)
}

func writeRequests(f *excelize.File, requests []model.VerificationRequest, headerStyle int) error {
	header := make([]interface{}, len(requestColumns))
	for i, c := range requestColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(RequestsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(requestColumns))
	if err := f.SetCellStyle(RequestsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, req := range requests {
		verified := 0
		for _, d := range req.Documents {
			if d.Status == model.DocumentStatusVerified {
				verified++
			}
		}

		row := []interface{}{
			req.ID,
			req.UniversityName,
			req.AdminName,
			req.AdminEmail,
			string(req.Status),
			string(req.Priority),
			req.SubmittedAt.Format(timestampLayout),
			formatOptional(req.ReviewedAt),
			req.ReviewedBy,
			len(req.Documents),
			verified,
			checklistSummary(req.VerificationChecklist),
			req.ReviewNotes,
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(RequestsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write request row: %w", err)
		}
	}

	if err := f.SetPanes(RequestsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.AutoFilter(RequestsSheet, "A1:"+lastCol+"1", nil)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampLayout)
}

func checklistSummary(c model.VerificationChecklist) string {
	var done []string
	if c.BusinessLicense {
		done = append(done, "business license")
	}
	if c.Accreditation {
		done = append(done, "accreditation")
	}
	if c.ContactVerification {
		done = append(done, "contact")
	}
	if c.AddressVerification {
		done = append(done, "address")
	}
	if c.WebsiteVerification {
		done = append(done, "website")
	}
	return strings.Join(done, ", ")
}
