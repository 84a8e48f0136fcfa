// Package server exposes the thin HTTP surface: submit a listing URL, poll
// job progress, and manage the stored cars. All the interesting work happens
// behind the ingest service.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"car-tracker/models"
	"car-tracker/services"
	"car-tracker/storage"
	"car-tracker/tracker"
	"car-tracker/utils"
)

// Submitter accepts listing URLs and answers progress polls.
type Submitter interface {
	Submit(url string) (string, error)
	Poll(jobID string) (tracker.Snapshot, bool)
}

// Server routes HTTP requests to the store and the ingest service.
type Server struct {
	store   storage.CarStore
	ingest  Submitter
	insight *services.InsightService
	logger  *utils.Logger
	router  *gin.Engine
}

// New builds the server and registers all routes.
func New(store storage.CarStore, ingest Submitter,
	insight *services.InsightService, logger *utils.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:   store,
		ingest:  ingest,
		insight: insight,
		logger:  logger,
		router:  gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/cars", s.submitCar)
	s.router.GET("/cars", s.listCars)
	s.router.GET("/cars/export", s.exportCSV)
	s.router.POST("/cars/:id/status", s.updateStatus)
	s.router.DELETE("/cars/:id", s.deleteCar)

	s.router.GET("/tasks/:id", s.getTask)
	s.router.GET("/insights", s.getInsights)
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type submitRequest struct {
	URL string `json:"url"`
}

func (s *Server) submitCar(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	jobID, err := s.ingest.Submit(req.URL)
	switch {
	case errors.Is(err, services.ErrEmptyURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
	case errors.Is(err, storage.ErrDuplicateURL):
		c.JSON(http.StatusConflict, gin.H{"error": "this car is already in your list"})
	case err != nil:
		s.logger.Error("[server] Submit failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	}
}

func (s *Server) getTask(c *gin.Context) {
	snap, ok := s.ingest.Poll(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) listCars(c *gin.Context) {
	cars, err := s.store.ListAll()
	if err != nil {
		s.logger.Error("[server] List failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list cars"})
		return
	}
	if cars == nil {
		cars = []*models.Car{}
	}
	c.JSON(http.StatusOK, cars)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := s.store.UpdateStatus(c.Param("id"), req.Status)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "car not found"})
	case err != nil:
		s.logger.Error("[server] Status update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	}
}

func (s *Server) deleteCar(c *gin.Context) {
	err := s.store.Delete(c.Param("id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "car not found"})
	case err != nil:
		s.logger.Error("[server] Delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

func (s *Server) exportCSV(c *gin.Context) {
	cars, err := s.store.ListAll()
	if err != nil {
		s.logger.Error("[server] Export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export cars"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="cars.csv"`)
	if err := storage.WriteCSV(c.Writer, cars); err != nil {
		s.logger.Error("[server] CSV write failed: %v", err)
	}
}

func (s *Server) getInsights(c *gin.Context) {
	cars, err := s.store.ListAll()
	if err != nil {
		s.logger.Error("[server] Insights failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute insights"})
		return
	}
	c.JSON(http.StatusOK, s.insight.Generate(cars))
}
