// Backfill script for passings recorded before score snapshots existed.
//
// Recomputes user_points from the stored answers and fills in max_points
// from the task's current question set wherever it is still zero.
//
// Usage: go run scripts/fill_passing_points.go

package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"lms_testing_backend/internal/config"
	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/repository"
	"lms_testing_backend/pkg/database"
	"lms_testing_backend/pkg/logger"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("cannot read config file: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("cannot parse config file: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	tasks := repository.NewTaskRepository(db)
	answers := repository.NewUserAnswerRepository(db)

	var passings []model.Passing
	if err := db.Find(&passings).Error; err != nil {
		log.Fatalf("loading passings failed: %v", err)
	}

	updated := 0
	for i := range passings {
		p := &passings[i]

		if p.MaxPoints == 0 {
			maxPoints, err := tasks.QuestionsScore(p.TaskID)
			if err != nil {
				log.Printf("passing %d: cannot sum task scores: %v", p.ID, err)
				continue
			}
			p.MaxPoints = maxPoints
		}

		list, err := answers.ListByPassing(p.ID)
		if err != nil {
			log.Printf("passing %d: cannot load answers: %v", p.ID, err)
			continue
		}
		points := 0
		for j := range list {
			points += list[j].Points()
		}
		p.UserPoints = points

		if err := db.Save(p).Error; err != nil {
			log.Printf("passing %d: save failed: %v", p.ID, err)
			continue
		}
		updated++
	}

	log.Printf("done, %d of %d passings updated", updated, len(passings))
}
