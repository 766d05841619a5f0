package main

import (
	"github.com/trqanh/socialblog/config"
	"github.com/trqanh/socialblog/models"
	"github.com/trqanh/socialblog/routes"
	"github.com/trqanh/socialblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.PostFollow{},
		&models.PostView{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
