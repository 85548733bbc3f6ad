package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
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

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGormDB(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		superEmail := cfg.Security.SuperadminEmail
		if superEmail == "" {
			superEmail = "admin@example.com"
		}
		superID := uuid.New()
		var existingSuper string
		row := db.Raw("SELECT id FROM users WHERE email = ?", superEmail).Row()
		if err := row.Scan(&existingSuper); err == nil {
			fmt.Println("superadmin user already exists:", superEmail)
			superID = uuid.MustParse(existingSuper)
		} else {
			if err := db.Exec("INSERT INTO users (id, email, name, password_hash, is_verified, is_admin, created_at) VALUES (?, ?, ?, ?, true, true, now())",
				superID, superEmail, "Superadmin", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert superadmin user: %v", err)
			}
			fmt.Println("Seeded superadmin user:", superEmail)
		}

		demoEmail := "demo@example.com"
		demoID := uuid.New()
		var existingDemo string
		row = db.Raw("SELECT id FROM users WHERE email = ?", demoEmail).Row()
		if err := row.Scan(&existingDemo); err == nil {
			fmt.Println("demo user already exists:", demoEmail)
			demoID = uuid.MustParse(existingDemo)
		} else {
			if err := db.Exec("INSERT INTO users (id, email, name, password_hash, is_verified, created_at) VALUES (?, ?, ?, ?, true, now())",
				demoID, demoEmail, "Demo User", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert demo user: %v", err)
			}
			fmt.Println("Seeded demo user:", demoEmail)
		}

		calSlug := "demo-team"
		calID := uuid.New()
		var existingCal string
		row = db.Raw("SELECT id FROM calendars WHERE slug = ?", calSlug).Row()
		if err := row.Scan(&existingCal); err == nil {
			fmt.Println("demo calendar already exists:", calSlug)
		} else {
			if err := db.Exec("INSERT INTO calendars (id, owner_id, slug, title, description, timezone, language, week_starts_monday, email_notifications, created_at) VALUES (?, ?, ?, ?, ?, 'UTC', 'en', true, false, now())",
				calID, demoID, calSlug, "Demo Team Calendar", "Example shared calendar").Error; err != nil {
				log.Fatalf("failed to insert demo calendar: %v", err)
			}

			subCalendars := []struct {
				Name  string
				Color string
			}{
				{"Work", "#2f80ed"},
				{"Personal", "#27ae60"},
			}
			for i, sc := range subCalendars {
				if err := db.Exec("INSERT INTO sub_calendars (id, calendar_id, name, color, active, position) VALUES (?, ?, ?, ?, true, ?)",
					uuid.New(), calID, sc.Name, sc.Color, i).Error; err != nil {
					log.Fatalf("failed to insert sub calendar %s: %v", sc.Name, err)
				}
			}
			fmt.Println("Seeded demo calendar:", calSlug)
		}

		fmt.Println("Seeding complete")
	},
}
