package serverconfig

import (
	"os"

	"IslandWar/internal/shared/config"
)

const defaultConfigRelPath = "configs/conf.yml"

var Conf Config

func Load() {
	config.LoadByName("", defaultConfigRelPath, &Conf)
	// Environment wins; fall back to the configured jwt_secret for local runs.
	if os.Getenv("JWT_SECRET") == "" && Conf.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", Conf.JWTSecret)
	}
}
