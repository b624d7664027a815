package main

import (
	"github.com/scopewatch/api/internal/infra/postgres"
)

// Repositories holds all repository instances.
type Repositories struct {
	Program      *postgres.ProgramRepository
	Asset        *postgres.AssetRepository
	AssetChange  *postgres.AssetChangeRepository
	ScopeHistory *postgres.ScopeHistoryRepository
}

// NewRepositories initializes all repositories.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Program:      postgres.NewProgramRepository(db),
		Asset:        postgres.NewAssetRepository(db),
		AssetChange:  postgres.NewAssetChangeRepository(db),
		ScopeHistory: postgres.NewScopeHistoryRepository(db),
	}
}
