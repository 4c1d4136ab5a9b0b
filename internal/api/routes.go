package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(router *gin.Engine, service Service, logger *logrus.Logger) {
	handler := NewHandler(service, logger)

	api := router.Group("/api")
	{
		api.GET("/busyness", handler.GetBusyness)
		api.GET("/busyness/peak", handler.GetPeakTime)
		api.GET("/busyness/classify", handler.ClassifyQuery)
	}
}
