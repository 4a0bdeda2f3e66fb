// Package server exposes itemized transactions over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/report"
	"github.com/cleared-dev/receipts/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server serves reports from a store.
type Server struct {
	reports store.Reports
	log     zerolog.Logger
	engine  *gin.Engine
}

// New builds the router. CORS is enabled when cfg lists allowed origins.
func New(reports store.Reports, cfg config.ServerConfig, log zerolog.Logger) *Server {
	s := &Server{reports: reports, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Accept", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.healthz)
	api := r.Group("/api")
	api.GET("/transactions", s.getTransactions)
	api.GET("/vendors", s.getVendors)
	api.GET("/vendor-aliases", s.getVendorAliases)
	api.GET("/periodic-payments", s.getPeriodicPayments)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info().Msg("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getTransactions lists itemized rows dated within [start, end]. Pass
// format=csv for the same CSV the export command writes.
func (s *Server) getTransactions(c *gin.Context) {
	start, err := time.Parse(config.DateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(config.DateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is before start"})
		return
	}

	txns, err := s.reports.ListClassifiedTransactions(c.Request.Context(), start, end)
	if err != nil {
		s.internalError(c, err, "Error fetching transactions")
		return
	}
	rows := make([]report.Row, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, report.FromReported(t))
	}
	report.Sort(rows)

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := report.Write(c.Writer, rows, true); err != nil {
			s.log.Error().Err(err).Msg("writing CSV response")
		}
		return
	}
	c.JSON(http.StatusOK, rows)
}

type vendorResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	DefaultCategory   *string `json:"default_category"`
	DefaultAsset      *string `json:"default_asset"`
	FixedAmount       *int64  `json:"fixed_amount"`
	TaxAdjustmentType *string `json:"tax_adjustment_type"`
}

func toVendorResponse(v model.Vendor) vendorResponse {
	resp := vendorResponse{ID: v.ID, Name: v.Name, FixedAmount: v.FixedAmount}
	if v.DefaultCategory != nil {
		label := v.DefaultCategory.Label()
		resp.DefaultCategory = &label
	}
	if v.DefaultAsset != nil {
		resp.DefaultAsset = &v.DefaultAsset.Name
	}
	if v.TaxAdjustmentType != nil {
		t := string(*v.TaxAdjustmentType)
		resp.TaxAdjustmentType = &t
	}
	return resp
}

func (s *Server) getVendors(c *gin.Context) {
	vendors, err := s.reports.ListVendors(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error fetching vendors")
		return
	}
	resp := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		resp = append(resp, toVendorResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

type aliasResponse struct {
	ID             string `json:"id"`
	Vendor         string `json:"vendor"`
	Pattern        string `json:"pattern"`
	MatchOperation string `json:"match_operation"`
}

func (s *Server) getVendorAliases(c *gin.Context) {
	aliases, err := s.reports.ListVendorAliases(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error fetching vendor aliases")
		return
	}
	resp := make([]aliasResponse, 0, len(aliases))
	for _, a := range aliases {
		resp = append(resp, aliasResponse{
			ID:             a.ID,
			Vendor:         a.Vendor.Name,
			Pattern:        a.Pattern,
			MatchOperation: string(a.MatchOperation),
		})
	}
	c.JSON(http.StatusOK, resp)
}

type periodicPaymentResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Vendor   string `json:"vendor"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

func (s *Server) getPeriodicPayments(c *gin.Context) {
	payments, err := s.reports.ListPeriodicPayments(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error fetching periodic payments")
		return
	}
	resp := make([]periodicPaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, periodicPaymentResponse{
			ID:       p.ID,
			Name:     p.Name,
			Vendor:   p.Vendor.Name,
			Currency: string(p.Currency),
			Amount:   p.Amount,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) internalError(c *gin.Context, err error, msg string) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
