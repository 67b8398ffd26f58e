package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/LJTian/SyndicateHub/internal/pipeline"
	"github.com/LJTian/SyndicateHub/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// Runs 运行状态与手动触发，*scheduler.Scheduler 满足该接口
type Runs interface {
	RunOnce(ctx context.Context) (pipeline.Report, error)
	Last() (pipeline.Report, bool)
}

type Server struct {
	runs Runs
}

func NewServer(runs Runs) *Server {
	return &Server{runs: runs}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs/last", s.lastRun)
		v1.POST("/runs", s.triggerRun)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) lastRun(c *gin.Context) {
	rep, ok := s.runs.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "no run yet",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    rep,
	})
}

// triggerRun 同步执行一轮，与定时任务互斥
func (s *Server) triggerRun(c *gin.Context) {
	rep, err := s.runs.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{
			"code":    "busy",
			"message": err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    rep,
	})
}
