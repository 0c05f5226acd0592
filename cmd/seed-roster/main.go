package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gradelab/examlink/internal/config"
	"github.com/gradelab/examlink/internal/database"
	"github.com/gradelab/examlink/internal/logger"
	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/repository"
)

// seed-roster loads students from a CSV of "name,phone" rows so identity
// verification has something to match against.
func main() {
	var csvPath string
	flag.StringVar(&csvPath, "file", "roster.csv", "Path to roster CSV (name,phone)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", csvPath).Msg("Failed to open roster CSV")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	seeded := 0
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("CSV parse error")
		}

		name := strings.TrimSpace(record[0])
		phone := strings.TrimSpace(record[1])
		if name == "" || phone == "" {
			skipped++
			continue
		}

		student := &model.Student{Name: name, Phone: phone}
		if err := studentRepo.Create(ctx, student); err != nil {
			log.Error().Err(err).Str("name", name).Msg("Insert failed")
			skipped++
			continue
		}
		seeded++
	}

	fmt.Printf("Seeded %d students (%d skipped)\n", seeded, skipped)
}
