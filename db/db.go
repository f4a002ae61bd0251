package db

import (
	"log"
	"os"

	"conecta/config"
	"conecta/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate básico.
// Para habilitar automigrate em ambientes de dev, exporte AUTOMIGRATE=1.
func Connect() (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		log.Println("Utilizando conexão com o postgresql...")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		log.Println("Utilizando conexão com o sqlite3...")
		db, err = gorm.Open("sqlite3", "db/database.db")
	}

	if err != nil {
		log.Println("Got error when connect database, the error is: " + err.Error())
		return nil, err
	}

	// Log em dev
	db.LogMode(true)

	if getenv("AUTOMIGRATE", "0") == "1" {
		db.AutoMigrate(
			&models.Provider{},
			&models.Connection{},
		)
		SeedProviders(db)
	}

	return db, nil
}

// SeedProviders inserts the default catalog entries that are still missing.
func SeedProviders(db *gorm.DB) {
	for _, p := range models.DefaultProviders() {
		var existing models.Provider
		if err := db.Where("key = ?", p.Key).First(&existing).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				if err := db.Create(&p).Error; err != nil {
					log.Printf("seed provider %s: %v", p.Key, err)
				}
				continue
			}
			log.Printf("seed provider %s: %v", p.Key, err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
