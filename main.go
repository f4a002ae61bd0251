package main

import (
	"log"
	"os"
	"time"

	"conecta/adapters"
	"conecta/config"
	"conecta/connections"
	"conecta/controllers"
	"conecta/cryptox"
	dbpkg "conecta/db"
	"conecta/router"
	"conecta/workers"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg := config.Get(configPath)

	dbpkg.SetConfigurations(cfg)
	db, err := dbpkg.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	envelope, err := cryptox.New(cfg.Security.EncryptionSecret, cfg.Security.EncryptionKDF)
	if err != nil {
		log.Fatal(err)
	}

	registry := adapters.Default()
	repo := connections.NewRepository(db)
	service := connections.NewService(repo, registry, envelope)
	statusCache := workers.NewStatusCache()

	workers.StartStatusRefresher(db, service, statusCache,
		time.Duration(cfg.StatusPollSeconds)*time.Second)

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	r.Use(controllers.SetDepsToContext(service, statusCache, cfg))
	router.Initialize(r, cfg)

	log.Printf("Conecta listening on :%s", cfg.ApiPort)
	if err := r.Run(":" + cfg.ApiPort); err != nil {
		log.Fatal(err)
	}
}
