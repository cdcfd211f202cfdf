package main

import (
	"log"

	"budget-engine/internal/config"
	"budget-engine/internal/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	srv, err := handler.Open(cfg)
	if err != nil {
		log.Fatalf("Opening %s failed: %v", cfg.BudgetFile, err)
	}

	log.Printf("Budget engine starting on port %s (document %s)", cfg.Port, cfg.BudgetFile)
	if err := srv.ListenAndServe(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
