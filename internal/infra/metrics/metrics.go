package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShiftsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "station_shifts_opened_total",
		Help: "Shifts opened.",
	})
	ShiftsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "station_shifts_closed_total",
		Help: "Shifts closed.",
	})
	DeliveriesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "station_truck_intakes_total",
		Help: "Truck deliveries recorded.",
	})
	TankReadingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "station_tank_readings_total",
		Help: "Manual/telemetry tank readings recorded.",
	})
	TankStockLitres = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "station_tank_stock_litres",
		Help: "Theoretical running stock per tank.",
	}, []string{"tank"})
)
