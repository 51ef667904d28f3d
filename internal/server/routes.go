package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/contributor"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
)

// registerRoutes sets up the JSON API on the Gin router.
func registerRoutes(router *gin.Engine, e *lifecycle.Engine, boardAddr string) {
	api := router.Group("/api")

	api.GET("/board", handleGetBoard(e, boardAddr))
	api.GET("/contributors/:wallet", handleGetContributor(e, boardAddr))

	api.GET("/bounties", handleListBounties(e, boardAddr))
	api.GET("/bounties/:addr", handleGetBounty(e))
	api.GET("/bounties/:addr/activities", handleListActivities(e))
	api.GET("/bounties/:addr/submissions", handleListSubmissions(e))

	api.POST("/bounties", handleCreateBounty(e, boardAddr))
	api.PATCH("/bounties/:addr", handleUpdateBounty(e))
	api.DELETE("/bounties/:addr", handleDeleteBounty(e))

	api.POST("/bounties/:addr/apply", handleApply(e))
	api.POST("/bounties/:addr/assign", handleAssign(e))
	api.POST("/bounties/:addr/unassign-overdue", handleUnassignOverdue(e))

	api.POST("/bounties/:addr/submit", handleSubmit(e))
	api.POST("/bounties/:addr/update-submission", handleUpdateSubmission(e))
	api.POST("/bounties/:addr/request-changes", handleRequestChanges(e))
	api.POST("/bounties/:addr/accept", handleAccept(e))
	api.POST("/bounties/:addr/force-accept", handleForceAccept(e))
	api.POST("/bounties/:addr/reject", handleReject(e))
	api.POST("/bounties/:addr/reject-stale", handleRejectStale(e))
}

func handleGetBoard(e *lifecycle.Engine, boardAddr string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := board.Get(e.DB(), boardAddr)
		if err != nil {
			fail(c, err)
			return
		}
		vault, err := token.BalanceOf(e.DB(), b.VaultAddr)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"board": b, "vault_balance": vault})
	}
}

func handleGetContributor(e *lifecycle.Engine, boardAddr string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := contributor.Get(e.DB(), boardAddr, c.Param("wallet"))
		if err != nil {
			fail(c, err)
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no contributor record for wallet"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func handleListBounties(e *lifecycle.Engine, boardAddr string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := e.DB().Where("board_addr = ?", boardAddr)
		if state := c.Query("state"); state != "" {
			q = q.Where("state = ?", state)
		}
		var bounties []models.Bounty
		if err := q.Order("bounty_index").Find(&bounties).Error; err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, bounties)
	}
}

func handleGetBounty(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var b models.Bounty
		if err := e.DB().Where("addr = ?", c.Param("addr")).First(&b).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "bounty not found"})
			return
		}
		escrow, err := token.BalanceOf(e.DB(), b.EscrowAddr)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bounty": b, "escrow_balance": escrow})
	}
}

func handleListActivities(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var acts []models.BountyActivity
		err := e.DB().Where("bounty_addr = ?", c.Param("addr")).
			Order("activity_index").Find(&acts).Error
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, acts)
	}
}

func handleListSubmissions(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var subs []models.BountySubmission
		err := e.DB().Where("bounty_addr = ?", c.Param("addr")).
			Order("submission_index").Find(&subs).Error
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, subs)
	}
}

func handleCreateBounty(e *lifecycle.Engine, boardAddr string) gin.HandlerFunc {
	type createReq struct {
		Tier        string `json:"tier" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Skill       string `json:"skill" binding:"required"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req createReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bounty, err := e.CreateBounty(caller, boardAddr, lifecycle.CreateBountyOpts{
			Tier:        req.Tier,
			Title:       req.Title,
			Description: req.Description,
			Skill:       req.Skill,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, bounty)
	}
}

func handleUpdateBounty(e *lifecycle.Engine) gin.HandlerFunc {
	type updateReq struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req updateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bounty, err := e.UpdateBounty(caller, c.Param("addr"), req.Title, req.Description)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, bounty)
	}
}

func handleDeleteBounty(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		if err := e.DeleteBounty(caller, c.Param("addr")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleApply(e *lifecycle.Engine) gin.HandlerFunc {
	type applyReq struct {
		ValiditySeconds int64 `json:"validity_seconds" binding:"required"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req applyReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app, err := e.ApplyToBounty(caller, c.Param("addr"), req.ValiditySeconds)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, app)
	}
}

func handleAssign(e *lifecycle.Engine) gin.HandlerFunc {
	type assignReq struct {
		ApplicationAddr string `json:"application_addr" binding:"required"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req assignReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bounty, sub, err := e.AssignBounty(caller, c.Param("addr"), req.ApplicationAddr)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bounty": bounty, "submission": sub})
	}
}

func handleUnassignOverdue(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		bounty, err := e.UnassignOverdue(caller, c.Param("addr"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, bounty)
	}
}

func handleSubmit(e *lifecycle.Engine) gin.HandlerFunc {
	type submitReq struct {
		Link string `json:"link" binding:"required"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req submitReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sub, err := e.Submit(caller, c.Param("addr"), req.Link)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleUpdateSubmission(e *lifecycle.Engine) gin.HandlerFunc {
	type updateReq struct {
		Link string `json:"link"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req updateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sub, err := e.UpdateSubmission(caller, c.Param("addr"), req.Link)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleRequestChanges(e *lifecycle.Engine) gin.HandlerFunc {
	type reviewReq struct {
		Comment string `json:"comment"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req reviewReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sub, err := e.RequestChanges(caller, c.Param("addr"), req.Comment)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleAccept(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		sub, err := e.Accept(caller, c.Param("addr"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleForceAccept(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		sub, err := e.ForceAccept(caller, c.Param("addr"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleReject(e *lifecycle.Engine) gin.HandlerFunc {
	type reviewReq struct {
		Comment string `json:"comment"`
	}
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		var req reviewReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sub, err := e.Reject(caller, c.Param("addr"), req.Comment)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

func handleRejectStale(e *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := wallet(c)
		if !ok {
			return
		}
		sub, err := e.RejectStale(caller, c.Param("addr"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}
