package cmd

import (
	"fmt"
	"log"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with baseline data",
	Long:  `Seed the permission groups, a superuser account, the school register and the lookup code lists.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			clearSeedData(db)
		}

		seedGroups(db)
		seedSuperuser(db)
		seedSchools(db)
		seedLookups(db)

		fmt.Println("Seeding complete")
	},
}

// clearSeedData removes only the seeded reference rows, never user data.
func clearSeedData(db *gorm.DB) {
	if err := db.Exec("DELETE FROM lookups").Error; err != nil {
		log.Fatalf("failed to clear lookups: %v", err)
	}
	fmt.Println("Cleared lookup code lists")
}

// seedGroups creates the six permission groups the evaluator recognizes.
func seedGroups(db *gorm.DB) {
	for _, role := range identity.AllRoles() {
		var exists int
		row := db.Raw("SELECT 1 FROM groups WHERE name = ?", string(role)).Row()
		if err := row.Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO groups (name, created_at) VALUES (?, now())", string(role)).Error; err != nil {
			log.Fatalf("failed to insert group %s: %v", role, err)
		}
		fmt.Printf("Seeded group: %s\n", role)
	}
}

func seedSuperuser(db *gorm.DB) {
	email := "admin@emis.example"
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("superuser already exists:", email)
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err := db.Exec(`INSERT INTO users
		(username, email, first_name, last_name, password_hash, is_superuser, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, true, true, now(), now())`,
		"admin", email, "System", "Administrator", string(hash)).Error; err != nil {
		log.Fatalf("failed to insert superuser: %v", err)
	}
	fmt.Println("Seeded superuser:", email)
}

func seedSchools(db *gorm.DB) {
	schools := []struct {
		Name   string
		Island string
	}{
		{"Majuro Central High School", "MAJ"},
		{"Ebeye Primary School", "KWA"},
		{"Jaluit Elementary School", "JAL"},
	}

	for _, s := range schools {
		var exists int
		if err := db.Raw("SELECT 1 FROM schools WHERE name = ?", s.Name).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO schools (name, island_code, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())",
			s.Name, s.Island).Error; err != nil {
			log.Fatalf("failed to insert school %s: %v", s.Name, err)
		}
		fmt.Printf("Seeded school: %s\n", s.Name)
	}
}

func seedLookups(db *gorm.DB) {
	lookups := []struct {
		Type  string
		Code  string
		Label string
	}{
		{"gender", "M", "Male"},
		{"gender", "F", "Female"},
		{"marital_status", "SINGLE", "Single"},
		{"marital_status", "MARRIED", "Married"},
		{"job_title", "CT", "Classroom Teacher"},
		{"job_title", "PR", "Principal"},
		{"job_title", "VP", "Vice Principal"},
		{"qualification", "CERT", "Certificate"},
		{"qualification", "DIP", "Diploma"},
		{"qualification", "BED", "Bachelor of Education"},
		{"subject", "ENG", "English"},
		{"subject", "MAT", "Mathematics"},
		{"subject", "SCI", "Science"},
		{"doc_link_type", "BIRTHCERT", "Birth Certificate"},
		{"doc_link_type", "PASSPORT", "Passport"},
		{"doc_link_type", "NATIONID", "National ID Card"},
		{"doc_link_type", "ACACERT", "Academic Certificate"},
		{"doc_link_type", "ACATRANS", "Academic Transcript"},
		{"doc_link_type", "TEACHCERT", "Teaching Certificate"},
		{"doc_link_type", "TEACHTRANS", "Teaching Transcript"},
		{"doc_link_type", "TRAINCERT", "Training Certificate"},
		{"doc_link_type", "POLCLEAR", "Police Clearance"},
		{"doc_link_type", "MEDCLEAR", "Medical Clearance"},
		{"doc_link_type", "PHOTO", "Passport Photo"},
		{"doc_link_type", "CHURCHREF", "Church Character Reference"},
		{"doc_link_type", "SCHREF", "School Leader Reference"},
		{"doc_link_type", "REGRECEIPT", "Registration Fee Receipt"},
	}

	for _, l := range lookups {
		var exists int
		if err := db.Raw("SELECT 1 FROM lookups WHERE lookup_type = ? AND code = ?", l.Type, l.Code).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO lookups (lookup_type, code, label, sort_order, is_active, created_at, updated_at) VALUES (?, ?, ?, 0, true, now(), now())",
			l.Type, l.Code, l.Label).Error; err != nil {
			log.Fatalf("failed to insert lookup %s/%s: %v", l.Type, l.Code, err)
		}
	}
	fmt.Println("Lookup code lists seeded")
}
