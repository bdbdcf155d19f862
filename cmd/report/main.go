package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/commonapply/verification-backend/config"
	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/internal/app/service"
	"github.com/commonapply/verification-backend/internal/db"
	"github.com/commonapply/verification-backend/internal/report"
)

func main() {
	output := flag.String("o", "", "output file (default verification-report-YYYYMMDD.xlsx)")
	status := flag.String("status", "", "only export requests with this status")
	flag.Parse()

	filter := repository.VerificationFilter{Status: model.VerificationStatus(*status)}
	if filter.Status != "" && !filter.Status.IsValid() {
		log.Fatalf("Unknown status %q", *status)
	}

	now := time.Now().UTC()
	path := *output
	if path == "" {
		path = fmt.Sprintf("verification-report-%s.xlsx", now.Format("20060102"))
	}

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	verificationRepo := repository.NewVerificationRepository(db.GetDB())

	requests, err := verificationRepo.FindAll(context.Background(), filter)
	if err != nil {
		log.Fatal("Failed to load verification requests:", err)
	}
	summary := service.BuildVerificationReport(requests, now)

	f, err := os.Create(path)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer f.Close()

	if err := report.WriteVerificationWorkbook(f, summary, requests); err != nil {
		log.Fatal("Failed to write report:", err)
	}

	fmt.Printf("Exported %d verification requests to %s\n", len(requests), path)
	fmt.Printf("Pending: %d, Under review: %d, Approved: %d, Rejected: %d\n",
		summary.Pending, summary.UnderReview, summary.Approved, summary.Rejected)
}
