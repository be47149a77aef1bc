package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/auth"
	"bizplan/internal/config"
	"bizplan/internal/database"
)

func main() {
	var (
		username      = flag.String("username", "", "initial admin username (required)")
		seedTemplates = flag.Bool("seed-templates", true, "seed the public template catalogue")
		dbHost        = flag.String("db-host", "", "database host (default: DATABASE_HOST)")
		dbPort        = flag.Int("db-port", 0, "database port (default: DATABASE_PORT)")
		dbName        = flag.String("db-name", "", "database name (default: POSTGRES_DB)")
		dbUser        = flag.String("db-user", "", "database user (default: POSTGRES_USER)")
		dbPass        = flag.String("db-password", "", "database password (default: POSTGRES_PASSWORD)")
		sslMode       = flag.String("db-sslmode", "", "database sslmode (default: DATABASE_SSLMODE)")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("username = ?", u).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", u)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := database.User{
		Username:     u,
		PasswordHash: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	if *seedTemplates {
		if err := seedPublicTemplates(db); err != nil {
			log.Fatalf("seed templates: %v", err)
		}
	}

	fmt.Printf("Initial admin account created:\n")
	fmt.Printf("username: %s\n", u)
	fmt.Printf("password: %s\n", password)
	fmt.Printf("Note: this password is shown only once.\n")
}

// seedPublicTemplates inserts the default rendering templates when they are
// not present yet. Matching is by title, so reruns are safe.
func seedPublicTemplates(db *gorm.DB) error {
	defaults := []struct {
		title  string
		layout map[string]any
	}{
		{
			title: "Plan d'affaires classique",
			layout: map[string]any{
				"accent_color": "#2c5f8a",
				"font_family":  "Arial",
				"font_size_pt": 11,
				"sections": []string{
					"presentation", "marche", "strategie", "equipe",
					"operations", "finances", "calendrier",
				},
			},
		},
		{
			title: "CV moderne",
			layout: map[string]any{
				"accent_color": "#1f7a5c",
				"font_family":  "Helvetica",
				"font_size_pt": 10,
				"columns":      2,
			},
		},
		{
			title: "Lettre de motivation sobre",
			layout: map[string]any{
				"accent_color": "#444444",
				"font_family":  "Georgia",
				"font_size_pt": 11,
				"margin_cm":    2.5,
			},
		},
	}

	for _, d := range defaults {
		var existing database.Template
		switch err := db.Where("title = ? AND is_public = ?", d.title, true).First(&existing).Error; {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("query template %q: %w", d.title, err)
		}

		content, err := json.Marshal(d.layout)
		if err != nil {
			return fmt.Errorf("marshal template %q: %w", d.title, err)
		}

		tmpl := database.Template{
			Title:    d.title,
			Content:  datatypes.JSON(content),
			IsPublic: true,
		}
		if err := db.Create(&tmpl).Error; err != nil {
			return fmt.Errorf("create template %q: %w", d.title, err)
		}
		log.Printf("seeded template %q", d.title)
	}
	return nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
