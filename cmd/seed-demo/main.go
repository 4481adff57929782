package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/database"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/logger"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/repository"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamSessionRepository(pool)

	studentService := service.NewStudentService(studentRepo, log)
	examService := service.NewExamSessionService(examRepo, log)

	fmt.Println("=== Seeding demo data ===")

	student, err := studentService.Create(ctx, &model.CreateStudentRequest{
		Name:  "Demo Student",
		Email: "demo.student@example.com",
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			fmt.Println("Demo student already exists, skipping")
		} else {
			log.Fatal().Err(err).Msg("Failed to seed student")
		}
	} else {
		fmt.Printf("Created student %s\n", student.ID)
	}

	description := "Seeded exam session for local development"
	exam, err := examService.Create(ctx, &model.CreateExamSessionRequest{
		Title:           "Demo Exam",
		Description:     &description,
		DurationMinutes: 60,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed exam session")
	}
	fmt.Printf("Created exam session %s\n", exam.ID)

	fmt.Println("=== Done ===")
}
