package audit

import (
	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/gitrepo"
	"github.com/temirov/gitmigrate/internal/ledger"
)

// RepositoryInventory captures what the hosting API reports about one repository.
type RepositoryInventory struct {
	Repository gitrepo.RepositoryIdentifier
	Detection  buildsystem.Result
	Branches   []string
}

// Record converts the inventory into a pre-migration ledger row.
// An absent primary language is written as an empty column.
func (inventory RepositoryInventory) Record() ledger.PreMigrationRecord {
	return ledger.PreMigrationRecord{
		RepositoryName:  inventory.Repository.String(),
		PrimaryLanguage: inventory.Detection.PrimaryLanguage,
		BuildSystem:     inventory.Detection.String(),
		BranchCount:     len(inventory.Branches),
		SizeKB:          inventory.Detection.SizeKB,
		Branches:        inventory.Branches,
	}
}

// InventoryReport summarises a collection run.
type InventoryReport struct {
	Inventories []RepositoryInventory
	Failures    []error
}
