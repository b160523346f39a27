// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration applies the embedded schema and the development seed
type Migration struct {
	db              *gorm.DB
	migrationsTable string
	bcryptCost      int
	log             *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, migrationsTable string, bcryptCost int, log *logrus.Logger) *Migration {
	return &Migration{
		db:              db,
		migrationsTable: migrationsTable,
		bcryptCost:      bcryptCost,
		log:             log,
	}
}

// Up applies every pending schema migration
func (m *Migration) Up() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{
		MigrationsTable: m.migrationsTable,
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("database schema is up to date")
			return nil
		}
		return fmt.Errorf("could not run migrations: %w", err)
	}

	version, _, _ := mg.Version()
	m.log.WithField("version", version).Info("database migrations applied")
	return nil
}

// SeedInitialData inserts development categories, products and accounts.
// Existing rows are left untouched, so seeding twice is harmless.
func (m *Migration) SeedInitialData() error {
	m.log.Info("seeding initial data")

	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedUser("admin@example.com", "Adm1n!Secure", "Admin", "User", true); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedUser("test1@example.com", "Te5t!Shopper", "Test", "User", false); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedCategories() (map[string]uint, error) {
	categories := []catalog.Category{
		{Name: "Electronics", Description: "Electronic devices, gadgets, and accessories"},
		{Name: "Clothing", Description: "Fashion, apparel, and accessories"},
		{Name: "Books", Description: "Books, eBooks, and educational materials"},
		{Name: "Home & Garden", Description: "Home improvement, furniture, and garden supplies"},
		{Name: "Sports & Outdoors", Description: "Sports equipment, outdoor gear, and fitness products"},
	}

	ids := make(map[string]uint, len(categories))
	for _, c := range categories {
		result := m.db.Where(catalog.Category{Name: c.Name}).Attrs(c).FirstOrCreate(&c)
		if result.Error != nil {
			return nil, result.Error
		}
		ids[c.Name] = c.ID
		m.log.WithFields(logrus.Fields{"category": c.Name, "created": result.RowsAffected > 0}).Debug("seeded category")
	}
	return ids, nil
}

func (m *Migration) seedProducts(categories map[string]uint) error {
	products := []struct {
		catalog.Product
		category string
	}{
		{catalog.Product{Name: "Wireless Headphones", Description: "Over-ear noise cancelling headphones", Price: decimal.RequireFromString("129.99"), SubCategory: "audio", Stock: 40, Featured: true}, "Electronics"},
		{catalog.Product{Name: "USB-C Charger", Description: "65W fast charger", Price: decimal.RequireFromString("29.50"), SubCategory: "accessories", Stock: 150}, "Electronics"},
		{catalog.Product{Name: "Cotton T-Shirt", Description: "Plain crew neck tee", Price: decimal.RequireFromString("15.00"), SubCategory: "tops", Stock: 200}, "Clothing"},
		{catalog.Product{Name: "The Go Programming Language", Description: "Donovan and Kernighan", Price: decimal.RequireFromString("39.95"), SubCategory: "programming", Stock: 25, Featured: true}, "Books"},
		{catalog.Product{Name: "Ceramic Planter", Description: "Glazed 20cm planter", Price: decimal.RequireFromString("18.25"), SubCategory: "garden", Stock: 60}, "Home & Garden"},
		{catalog.Product{Name: "Yoga Mat", Description: "6mm non-slip mat", Price: decimal.RequireFromString("24.00"), SubCategory: "fitness", Stock: 80}, "Sports & Outdoors"},
	}

	for _, p := range products {
		p.CategoryID = categories[p.category]
		product := p.Product
		if err := m.db.Where(catalog.Product{Name: product.Name}).Attrs(product).FirstOrCreate(&product).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedUser(email, password, firstName, lastName string, admin bool) error {
	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		m.log.WithField("email", email).Debug("user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
		IsAdmin:   admin,
	}
	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&user.Profile{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		}).Error
	})
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{"email": email, "admin": admin, "user_id": u.ID}).Info("seeded user")
	return nil
}
