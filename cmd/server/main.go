package main

import (
	_ "github.com/pulsehq/analytics-backend/docs"
	"github.com/pulsehq/analytics-backend/internal/bootstrap"
)

// @title Agent Analytics API
// @version 1.0.0
// @description Analytics aggregation and real-time metrics service for the agent platform

// @host api.analytics.example.com
// @BasePath /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	bootstrap.Run()
}
