package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"market-sync/src/logger"
	"market-sync/src/models"
	"market-sync/src/router"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Router *router.Router
	Now    func() time.Time

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MTickerFrame
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	done       chan struct{}
	stopOnce   sync.Once

	// Last frame, replayed to new subscribers
	latest     *models.MTickerFrame
	stateMutex sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, r *router.Router, log *logger.Logger) *APIServer {
	if cfg.LogLevel != "DEBUG" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		Router:     r,
		Now:        time.Now,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MTickerFrame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
		latest:     &models.MTickerFrame{Type: frameInitial, Items: []models.MTickerItem{}},
	}

	s.engine.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api", noStore)
	api.GET("/chart-data", s.getChartData)
	api.GET("/news", s.getNews)
	api.GET("/ticker", s.getTicker)
	api.POST("/chatbot", s.postChatbot)

	s.engine.GET("/health", noStore, s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the engine for in-process use.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and blocks serving HTTP until Stop is called.
func (s *APIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	go s.handleWebsockets()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
		close(s.done)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getChartData(c *gin.Context) {
	resp, err := s.Router.Chart(c.Request.Context(), router.ChartQuery{
		Start:      c.Query("startDateTime"),
		End:        c.Query("endDateTime"),
		CryptoPair: c.Query("cryptoPair"),
	})
	s.respond(c, "chart-data", resp, err)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getNews(c *gin.Context) {
	resp, err := s.Router.News(c.Request.Context(), parseLimit(c.Query("limit")))
	s.respond(c, "news", resp, err)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getTicker(c *gin.Context) {
	resp, err := s.Router.Ticker(c.Request.Context(), parseSymbols(c.Query("symbols")))
	s.respond(c, "ticker", resp, err)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postChatbot(c *gin.Context) {
	var req models.MChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.MErrorBody{Error: "invalid request body"})
		return
	}

	resp, err := s.Router.Chat(c.Request.Context(), req)
	s.respond(c, "chatbot", resp, err)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.MHealth{
		Status:    "ok",
		Timestamp: formatNow(s.Now),
	})
}
