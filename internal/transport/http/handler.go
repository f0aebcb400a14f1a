package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"IslandWar/internal/account/app"
	"IslandWar/internal/city"
	"IslandWar/internal/movement"
	"IslandWar/internal/player"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/errx"
	"IslandWar/internal/transport/http/middleware"
)

type Handler struct {
	accounts  *app.Service
	cities    *city.Service
	movements *movement.Service
	reports   *report.Service
	players   *player.Service
}

func NewHandler(accounts *app.Service, cities *city.Service, movements *movement.Service,
	reports *report.Service, players *player.Service) *Handler {
	return &Handler{
		accounts:  accounts,
		cities:    cities,
		movements: movements,
		reports:   reports,
		players:   players,
	}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/api/register", h.register)
	g.POST("/api/login", h.login)

	auth := g.Group("/api", middleware.Auth())
	auth.GET("/cities", h.listCities)
	auth.GET("/cities/:id", h.getCity)
	auth.POST("/cities/:id/build", h.enqueueBuild)
	auth.POST("/cities/:id/train", h.enqueueTrain)
	auth.POST("/cities/:id/research", h.enqueueResearch)
	auth.POST("/cities/:id/heal", h.enqueueHeal)
	auth.POST("/cities/:id/workers", h.assignWorkers)
	auth.POST("/cities/:id/defense", h.setDefense)
	auth.GET("/movements", h.listMovements)
	auth.POST("/movements", h.createMovement)
	auth.POST("/movements/:id/cancel", h.cancelMovement)
	auth.GET("/reports", h.listReports)
	auth.POST("/reports/:id/read", h.markReportRead)
	auth.GET("/leaderboard", h.leaderboard)
}

func (h *Handler) register(c *gin.Context) {
	var req app.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	req.IP = c.ClientIP()
	resp, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req app.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	req.IP = c.ClientIP()
	resp, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

func (h *Handler) listCities(c *gin.Context) {
	cities, err := h.cities.ListByOwner(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cities)
}

func (h *Handler) getCity(c *gin.Context) {
	ct, err := h.cities.Get(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ct)
}

func (h *Handler) enqueueBuild(c *gin.Context) {
	var req struct {
		Building string `json:"building" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.EnqueueBuild(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Building); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) enqueueTrain(c *gin.Context) {
	var req struct {
		Unit  string `json:"unit" binding:"required"`
		Count int    `json:"count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.EnqueueTrain(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Unit, req.Count); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) enqueueResearch(c *gin.Context) {
	var req struct {
		Research string `json:"research" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.EnqueueResearch(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Research); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) enqueueHeal(c *gin.Context) {
	var req struct {
		Unit  string `json:"unit" binding:"required"`
		Count int    `json:"count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.EnqueueHeal(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Unit, req.Count); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) assignWorkers(c *gin.Context) {
	var req struct {
		Building string `json:"building" binding:"required"`
		Workers  int    `json:"workers" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.AssignWorkers(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Building, req.Workers); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) setDefense(c *gin.Context) {
	var req struct {
		Phalanx string `json:"phalanx"`
		Support string `json:"support"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	if err := h.cities.SetDefense(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req.Phalanx, req.Support); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) listMovements(c *gin.Context) {
	out, err := h.movements.ListByOwner(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

type createMovementReq struct {
	Type         string         `json:"type" binding:"required"`
	OriginCityID string         `json:"originCityId" binding:"required"`
	Units        map[string]int `json:"units"`
	Resources    map[string]int `json:"resources"`
	Hero         string         `json:"hero"`
	Agent        string         `json:"agent"`

	Attack     *movement.AttackOrder     `json:"attack"`
	Village    *movement.VillageOrder    `json:"village"`
	Ruin       *movement.RuinOrder       `json:"ruin"`
	GodTown    *movement.GodTownOrder    `json:"godTown"`
	Scout      *movement.ScoutOrder      `json:"scout"`
	Reinforce  *movement.ReinforceOrder  `json:"reinforce"`
	Trade      *movement.TradeOrder      `json:"trade"`
	Found      *movement.FoundOrder      `json:"found"`
	AssignHero *movement.AssignHeroOrder `json:"assignHero"`
}

func (h *Handler) createMovement(c *gin.Context) {
	var req createMovementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errx.ErrReqParam.WithCause(err))
		return
	}
	cmd := movement.Command{
		Type:         movement.Type(req.Type),
		OwnerID:      middleware.AccountID(c),
		OriginCityID: req.OriginCityID,
		Units:        req.Units,
		Resources:    req.Resources,
		Hero:         req.Hero,
		Agent:        req.Agent,
		Attack:       req.Attack,
		Village:      req.Village,
		Ruin:         req.Ruin,
		GodTown:      req.GodTown,
		Scout:        req.Scout,
		Reinforce:    req.Reinforce,
		Trade:        req.Trade,
		Found:        req.Found,
		AssignHero:   req.AssignHero,
	}
	m, err := h.movements.Create(c.Request.Context(), cmd)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, m)
}

func (h *Handler) cancelMovement(c *gin.Context) {
	if err := h.movements.Cancel(c.Request.Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) listReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, err := h.reports.List(c.Request.Context(), middleware.AccountID(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (h *Handler) markReportRead(c *gin.Context) {
	if err := h.reports.MarkRead(c.Request.Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) leaderboard(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("top", "20"))
	ranks, err := h.players.Leaderboard(c.Request.Context(), n)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ranks)
}
