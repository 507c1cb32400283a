package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "corretor_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// LeadUpserts counts created/updated leads by origin (session, n8n, import)
	LeadUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corretor_lead_upserts_total",
			Help: "Number of leads created or updated",
		},
		[]string{"origin", "result"},
	)

	// KanbanMoves counts status moves from the board
	KanbanMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corretor_kanban_moves_total",
			Help: "Number of lead status moves",
		},
		[]string{"status"},
	)

	// Bookings counts booking attempts by result
	Bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corretor_bookings_total",
			Help: "Number of appointment booking attempts",
		},
		[]string{"result"},
	)

	// Imports counts spreadsheet/bulk imports
	Imports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corretor_imports_total",
			Help: "Number of lead import requests",
		},
		[]string{"source", "result"},
	)

	// Uploads counts blob uploads
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corretor_uploads_total",
			Help: "Number of blob uploads and presigns",
		},
		[]string{"purpose", "result"},
	)

	// ActiveConnections tracks in-flight requests
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corretor_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)
)
