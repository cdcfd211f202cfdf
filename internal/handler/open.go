package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/valyala/fasthttp"

	"budget-engine/internal/budget"
	"budget-engine/internal/config"
	"budget-engine/internal/ratecard"
	"budget-engine/internal/store"
)

// Open builds a server for cfg. The budget file is loaded when it exists;
// otherwise the session starts empty and the file is created on the first
// change.
func Open(cfg *config.Config) (*Server, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	session := budget.NewSession(settings)
	if _, err := os.Stat(cfg.BudgetFile); err == nil {
		doc, err := store.Load(cfg.BudgetFile, settings)
		if err != nil {
			return nil, err
		}
		session.Replace(doc)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", cfg.BudgetFile, err)
	}

	rates := ratecard.New(cfg.RateCatalog.URL, cfg.RateCatalog.Timeout)
	return New(session, rates, settings, cfg.BudgetFile), nil
}

func (s *Server) ListenAndServe(addr string) error {
	return fasthttp.ListenAndServe(addr, s.Handle)
}
