package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	companydm "github.com/operativa/gestionale/internal/core/datamodel/company"
	userdm "github.com/operativa/gestionale/internal/core/datamodel/user"
	"github.com/operativa/gestionale/pkg/logger"
)

const (
	seedCompanySlug = "demo-srl"
	seedOwnerEmail  = "mario.rossi@demo-srl.example"
	seedOwnerSub    = "seed-demo-owner"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		env := appEnv()
		logger.InitWithLevel(env, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		db, err := connectWithRetry(cfg.Database, env, logger.LoggerWrapper())
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := openGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			clearSeededData(gormDB)
		}

		if err := seedAll(gormDB); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
	},
}

func seedAll(db *gorm.DB) error {
	planID, err := seedPlans(db)
	if err != nil {
		return err
	}

	roleIDs, err := seedRoles(db)
	if err != nil {
		return err
	}

	companyID, err := seedCompany(db, planID)
	if err != nil {
		return err
	}

	return seedOwner(db, companyID, roleIDs[userdm.RoleCompanyOwner])
}

func seedPlans(db *gorm.DB) (string, error) {
	plans := []companydm.Plan{
		{Nome: "base", PrezzoMensile: 0, MaxUtenti: 3},
		{Nome: "professionale", PrezzoMensile: 29, MaxUtenti: 15},
		{Nome: "enterprise", PrezzoMensile: 99, MaxUtenti: 100},
	}

	var baseID string
	for _, p := range plans {
		var existing companydm.Plan
		err := db.Where("nome = ?", p.Nome).First(&existing).Error
		if err == nil {
			if p.Nome == "base" {
				baseID = existing.ID
			}
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return "", fmt.Errorf("looking up plan %s: %w", p.Nome, err)
		}
		if err := db.Create(&p).Error; err != nil {
			return "", fmt.Errorf("creating plan %s: %w", p.Nome, err)
		}
		fmt.Println("seeded plan:", p.Nome)
		if p.Nome == "base" {
			baseID = p.ID
		}
	}
	return baseID, nil
}

func seedRoles(db *gorm.DB) (map[string]string, error) {
	names := []string{userdm.RoleCompanyOwner, userdm.RoleAdmin, userdm.RoleMember}
	ids := make(map[string]string, len(names))

	for _, name := range names {
		var existing userdm.Role
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			ids[name] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("looking up role %s: %w", name, err)
		}
		role := userdm.Role{Name: name}
		if err := db.Create(&role).Error; err != nil {
			return nil, fmt.Errorf("creating role %s: %w", name, err)
		}
		fmt.Println("seeded role:", name)
		ids[name] = role.ID
	}
	return ids, nil
}

func seedCompany(db *gorm.DB, planID string) (string, error) {
	var existing companydm.Company
	err := db.Where("slug = ?", seedCompanySlug).First(&existing).Error
	if err == nil {
		fmt.Println("company already exists:", seedCompanySlug)
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return "", fmt.Errorf("looking up company: %w", err)
	}

	email := "amministrazione@demo-srl.example"
	settore := "edilizia"
	company := companydm.Company{
		Slug:              seedCompanySlug,
		Nome:              "Demo S.r.l.",
		EmailFatturazione: &email,
		Settore:           &settore,
	}
	if planID != "" {
		company.PlanID = &planID
	}
	if err := db.Create(&company).Error; err != nil {
		return "", fmt.Errorf("creating company: %w", err)
	}
	fmt.Println("seeded company:", seedCompanySlug)
	return company.ID, nil
}

func seedOwner(db *gorm.DB, companyID, roleID string) error {
	var existing userdm.User
	err := db.Where("email = ?", seedOwnerEmail).First(&existing).Error
	if err == nil {
		fmt.Println("owner already exists:", seedOwnerEmail)
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("looking up owner: %w", err)
	}

	sub := seedOwnerSub
	owner := userdm.User{
		CompanyID:  companyID,
		Email:      seedOwnerEmail,
		Nome:       "Mario",
		Cognome:    "Rossi",
		Status:     userdm.StatusActive,
		CognitoSub: &sub,
	}
	if roleID != "" {
		owner.RoleID = &roleID
	}
	if err := db.Create(&owner).Error; err != nil {
		return fmt.Errorf("creating owner: %w", err)
	}
	fmt.Println("seeded owner:", seedOwnerEmail)
	return nil
}

// clearSeededData removes only what the seeder creates, in FK order.
func clearSeededData(db *gorm.DB) {
	var company companydm.Company
	if err := db.Where("slug = ?", seedCompanySlug).First(&company).Error; err == nil {
		db.Exec("DELETE FROM users WHERE company_id = ?", company.ID)
		db.Exec("DELETE FROM companies WHERE id = ?", company.ID)
		fmt.Println("cleared seeded company and its users")
	}
}
