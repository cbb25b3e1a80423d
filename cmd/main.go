package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/navalclash/backend/api"
	"github.com/navalclash/backend/db"
	"github.com/navalclash/backend/db/sqlc"
	"github.com/navalclash/backend/imagegen"
)

func main() {
	if os.Getenv("STAGE") != "prod" {
		if err := godotenv.Load(".env"); err != nil {
			panic(err)
		}
	}
	stage := os.Getenv("STAGE")
	if stage != api.StageDev && stage != api.StageProd {
		panic("stage must be either dev or prod")
	}
	port := os.Getenv("PORT")

	// analytics is optional; the coordinator runs without it
	var analytics *sqlc.AnalyticsManager
	if psqlUrl := os.Getenv("DATABASE_URL"); psqlUrl != "" {
		dbManager := sqlc.NewDbManager(sqlc.New(db.MustConnectToDb(psqlUrl)))
		analytics = dbManager.Analytics
	}

	var images imagegen.Provider = &imagegen.StaticProvider{URL: imagegen.FallbackURL}
	if generatorUrl := os.Getenv("IMAGE_GENERATOR_URL"); generatorUrl != "" {
		images = imagegen.NewHTTPProvider(generatorUrl)
	}

	server := api.NewServer(analytics, images, api.WithPort(port), api.WithStage(stage))

	panic(server.Run())
}
