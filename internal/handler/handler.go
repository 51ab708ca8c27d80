// Package handler provides HTTP request handlers for the statehub API.
package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

var statesGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "statehub",
		Name:      "states",
		Help:      "Number of state containers currently stored",
	},
)
