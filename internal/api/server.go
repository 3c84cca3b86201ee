package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/opscheck/internal/auth"
	"github.com/opscheck/internal/database"
	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/export"
	"github.com/opscheck/internal/ledger"
	"github.com/opscheck/internal/maintenance"
	"github.com/opscheck/internal/models"
	"github.com/opscheck/internal/notify"
	"github.com/opscheck/internal/report"
	"github.com/opscheck/internal/telemetry"
)

type Server struct {
	manager     *ledger.Manager
	aggregator  *report.Aggregator
	maintenance *maintenance.Service
	telemetry   *telemetry.Client
	email       *notify.EmailSender
	slack       *notify.SlackNotifier
	checks      []string
	router      *gin.Engine
}

func NewServer(
	manager *ledger.Manager,
	aggregator *report.Aggregator,
	maintenanceSvc *maintenance.Service,
	telemetryClient *telemetry.Client,
	email *notify.EmailSender,
	slack *notify.SlackNotifier,
	checks []string,
) *Server {
	server := &Server{
		manager:     manager,
		aggregator:  aggregator,
		maintenance: maintenanceSvc,
		telemetry:   telemetryClient,
		email:       email,
		slack:       slack,
		checks:      checks,
		router:      gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)
	s.router.POST("/api/v1/auth/register", s.register)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	api.GET("/checks", s.listChecks)

	// Ledger endpoints
	api.GET("/ledgers", s.listLedgers)
	api.GET("/ledgers/active", s.activeLedger)
	api.GET("/ledgers/:key", s.readLedger)
	api.GET("/ledgers/:key/export", s.exportLedger)
	api.POST("/ledgers/:key/submit", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.submit)
	api.POST("/ledgers/copy-forward", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.copyForward)
	api.DELETE("/ledgers/:key", auth.RequirePermission("clear_ledgers"), s.deleteLedger)
	api.DELETE("/ledgers", auth.RequirePermission("clear_ledgers"), s.clearLedgers)

	// Report endpoints
	api.GET("/reports", s.getReport)
	api.POST("/reports/email", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.emailReport)

	// Telemetry endpoint
	api.GET("/telemetry", s.getTelemetry)

	// Maintenance interventions
	api.GET("/maintenance", s.listMaintenance)
	api.POST("/maintenance", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.addMaintenance)
	api.DELETE("/maintenance/:id", auth.RequireRole(models.RoleAdmin), s.deleteMaintenance)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.IsExternal(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var count int64
	if err := db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		respondError(c, errs.Storage("check user", err))
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already registered"})
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := db.Create(&user).Error; err != nil {
		respondError(c, errs.Storage("create user", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": user.Username})
}

func (s *Server) listChecks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"checks": s.checks})
}

func (s *Server) listLedgers(c *gin.Context) {
	keys, err := s.manager.ListKeys()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (s *Server) activeLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_key":  s.manager.ActiveKey(),
		"current_key": s.manager.CurrentKey(),
	})
}

func (s *Server) readLedger(c *gin.Context) {
	records, err := s.manager.ReadLedger(c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "records": records})
}

func (s *Server) exportLedger(c *gin.Context) {
	key := c.Param("key")
	records, err := s.manager.ReadLedger(key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=health_check_%s.csv", key))
	c.Header("Content-Type", "text/csv")
	if err := export.WriteLedgerCSV(c.Writer, key, records); err != nil {
		log.Error().Err(err).Str("key", key).Msg("ledger export failed")
	}
}

type submitRecord struct {
	CheckName string `json:"check_name" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
}

func (s *Server) submit(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Records []submitRecord `json:"records" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := c.GetString("username")
	records := make([]models.CheckRecord, len(req.Records))
	for i, r := range req.Records {
		records[i] = models.CheckRecord{
			CheckName:   r.CheckName,
			Status:      models.Status(r.Status),
			Reason:      r.Reason,
			Notes:       r.Notes,
			SubmittedBy: username,
		}
	}

	if err := s.manager.Submit(key, records); err != nil {
		respondError(c, err)
		return
	}

	if s.slack.Enabled() {
		if err := s.slack.NotifyFailures(key, records); err != nil {
			// Notification failure never fails the submission.
			log.Warn().Err(err).Msg("slack notification failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "submitted": len(records)})
}

func (s *Server) copyForward(c *gin.Context) {
	var req struct {
		Source string `json:"source"`
		Dest   string `json:"dest"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Default to yesterday -> today, the common case.
	if req.Source == "" && req.Dest == "" {
		src, dst, err := s.manager.CopyYesterdayToToday()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"source": src, "dest": dst})
		return
	}

	if err := s.manager.CopyForward(req.Source, req.Dest); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": req.Source, "dest": req.Dest})
}

func requireConfirm(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "destructive operation requires confirm=true",
		})
		return false
	}
	return true
}

func (s *Server) deleteLedger(c *gin.Context) {
	if !requireConfirm(c) {
		return
	}
	if err := s.manager.DeleteLedger(c.Param("key")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("key")})
}

func (s *Server) clearLedgers(c *gin.Context) {
	if !requireConfirm(c) {
		return
	}
	count, err := s.manager.ClearAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (s *Server) periodFromQuery(c *gin.Context) (report.Period, error) {
	kind := report.PeriodKind(c.DefaultQuery("type", string(report.KindDaily)))
	switch kind {
	case report.KindDaily:
		value := c.Query("date")
		if value == "" {
			return report.Daily(time.Now()), nil
		}
		date, err := report.ParseDate("date", value)
		if err != nil {
			return report.Period{}, err
		}
		return report.Daily(date), nil
	case report.KindWeekly:
		start, err := report.ParseDate("start", c.Query("start"))
		if err != nil {
			return report.Period{}, err
		}
		return report.Weekly(start), nil
	case report.KindMonthly:
		year, month, err := report.ParseMonth("month", c.Query("month"))
		if err != nil {
			return report.Period{}, err
		}
		return report.Monthly(year, month), nil
	case report.KindYearly:
		year, err := report.ParseYear("year", c.Query("year"))
		if err != nil {
			return report.Period{}, err
		}
		return report.Yearly(year), nil
	case report.KindCustom:
		start, err := report.ParseDate("start", c.Query("start"))
		if err != nil {
			return report.Period{}, err
		}
		end, err := report.ParseDate("end", c.Query("end"))
		if err != nil {
			return report.Period{}, err
		}
		return report.Custom(start, end), nil
	default:
		return report.Period{}, errs.Validation("type", "unknown report type %q", string(kind))
	}
}

func (s *Server) getReport(c *gin.Context) {
	period, err := s.periodFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.aggregator.Aggregate(period)
	if err != nil {
		respondError(c, err)
		return
	}

	// Environment telemetry is additive; a failed fetch shows up as an
	// error marker in the rendering instead of failing the report.
	var env *telemetry.Assessment
	if c.Query("env") == "true" {
		a := s.telemetry.FetchAssessment(c.Request.Context())
		env = &a
	}

	format := export.Format(c.DefaultQuery("format", "json"))
	if format == "json" {
		c.JSON(http.StatusOK, gin.H{"report": result, "environment": env})
		return
	}

	data, contentType, err := export.Render(result, env, format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) emailReport(c *gin.Context) {
	period, err := s.periodFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Recipients []string `json:"recipients"`
		AllUsers   bool     `json:"all_users"`
		Format     string   `json:"format"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipients := req.Recipients
	if req.AllUsers {
		var emails []string
		err := database.GetDB().Model(&models.User{}).
			Where("email <> ''").Pluck("email", &emails).Error
		if err != nil {
			respondError(c, errs.Storage("list user emails", err))
			return
		}
		recipients = append(recipients, emails...)
	}
	if len(recipients) == 0 {
		respondError(c, errs.Validation("recipients", "no recipients given and no registered user has an email address"))
		return
	}

	result, err := s.aggregator.Aggregate(period)
	if err != nil {
		respondError(c, err)
		return
	}
	env := s.telemetry.FetchAssessment(c.Request.Context())

	format := export.Format(req.Format)
	if format == "" {
		format = export.FormatPDF
	}
	attachment, contentType, err := export.Render(result, &env, format)
	if err != nil {
		respondError(c, err)
		return
	}

	body := report.RenderText(result, &env)
	filename := fmt.Sprintf("report.%s", format)
	if err := s.email.SendReport(recipients, result.Title, body, attachment, filename, contentType); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent_to": recipients})
}

func (s *Server) getTelemetry(c *gin.Context) {
	c.JSON(http.StatusOK, s.telemetry.FetchAssessment(c.Request.Context()))
}

func (s *Server) listMaintenance(c *gin.Context) {
	var from, to *time.Time
	if value := c.Query("from"); value != "" {
		t, err := report.ParseDate("from", value)
		if err != nil {
			respondError(c, err)
			return
		}
		from = &t
	}
	if value := c.Query("to"); value != "" {
		t, err := report.ParseDate("to", value)
		if err != nil {
			respondError(c, err)
			return
		}
		to = &t
	}

	interventions, err := s.maintenance.List(from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interventions": interventions})
}

func (s *Server) addMaintenance(c *gin.Context) {
	var req struct {
		Date        string `json:"date" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := report.ParseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	intervention, err := s.maintenance.Add(date, req.Description, c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intervention)
}

func (s *Server) deleteMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("id", "%q is not a valid id", c.Param("id")))
		return
	}
	if err := s.maintenance.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
