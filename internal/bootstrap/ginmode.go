package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/entity-service/config"
)

func SetGinMode(env string) {
	switch env {
	case config.EnvProduction:
		gin.SetMode(gin.ReleaseMode)
	case config.EnvTest:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
