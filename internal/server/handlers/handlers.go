package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/application/enrollmentservice"
	"github.com/campustransit/farebeacon/internal/application/locationservice"
	"github.com/campustransit/farebeacon/internal/application/recognitionservice"
	"github.com/campustransit/farebeacon/internal/application/riderservice"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/server/middleware"
	"github.com/campustransit/farebeacon/internal/server/websocket"
	"github.com/campustransit/farebeacon/pkg/config"
)

type Handlers struct {
	RiderSvc       riderservice.IRiderService
	EnrollmentSvc  enrollmentservice.IEnrollmentService
	RecognitionSvc recognitionservice.IRecognitionService
	LocationSvc    locationservice.ILocationService
	Logger         zerolog.Logger
	Config         *config.Config
	WsHub          *websocket.WsHub
}

func New(
	riderSvc riderservice.IRiderService,
	enrollmentSvc enrollmentservice.IEnrollmentService,
	recognitionSvc recognitionservice.IRecognitionService,
	locationSvc locationservice.ILocationService,
	logger zerolog.Logger,
	config *config.Config,
	wsHub *websocket.WsHub,
) *Handlers {
	return &Handlers{
		RiderSvc:       riderSvc,
		EnrollmentSvc:  enrollmentSvc,
		RecognitionSvc: recognitionSvc,
		LocationSvc:    locationSvc,
		Logger:         logger,
		Config:         config,
		WsHub:          wsHub,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	riderHandler := NewRiderHandler(h.RiderSvc, h.Logger)
	enrollmentHandler := NewEnrollmentHandler(h.EnrollmentSvc, h.Logger)
	recognitionHandler := NewRecognitionHandler(h.RecognitionSvc, h.Logger)
	busHandler := NewBusHandler(h.LocationSvc, h.Logger)
	wsHandler := NewWebSocketHandler(h.WsHub, h.Config.WebSocket)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/v1")
	{
		riders := v1.Group("/riders")
		{
			riders.POST("", riderHandler.CreateRider)
			riders.GET("/:rider_id", riderHandler.GetRider)
			riders.POST("/:rider_id/credit", riderHandler.CreditRider)
			riders.GET("/:rider_id/transactions", riderHandler.ListTransactions)
			riders.POST("/:rider_id/enroll", enrollmentHandler.Enroll)
			riders.POST("/:rider_id/embeddings/:record_id/retire", enrollmentHandler.Retire)
		}

		v1.POST("/recognize", recognitionHandler.Recognize)

		buses := v1.Group("/buses")
		{
			buses.PUT("/location", middleware.APIKeyAuth(h.Config.Security.APIKey), busHandler.UpdateLocation)
			buses.GET("/:bus_id/location", busHandler.GetLocation)
			buses.GET("/feed", wsHandler.HandleConnection)
		}
	}
}

// notFound reports whether err is one of the missing-entity sentinels.
func notFound(err error) bool {
	return errors.Is(err, models.ErrRiderNotFound) ||
		errors.Is(err, models.ErrRecordNotFound) ||
		errors.Is(err, models.ErrBusNotFound) ||
		errors.Is(err, models.ErrDriverNotFound)
}
