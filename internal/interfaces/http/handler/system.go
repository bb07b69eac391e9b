package handler

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradecomply/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// poolStater is implemented by database handles that expose pool statistics
type poolStater interface {
	Stats() (sql.DBStats, error)
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string            `json:"name" example:"tradecomply-bulk"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Database  *DatabasePoolInfo `json:"database,omitempty"`
}

// DatabasePoolInfo summarizes the connection pool
// @name HandlerDatabasePoolInfo
type DatabasePoolInfo struct {
	OpenConnections int   `json:"open_connections" example:"4"`
	InUse           int   `json:"in_use" example:"1"`
	Idle            int   `json:"idle" example:"3"`
	WaitCount       int64 `json:"wait_count" example:"0"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if stater, ok := h.db.(poolStater); ok {
		if stats, err := stater.Stats(); err == nil {
			info.Database = &DatabasePoolInfo{
				OpenConnections: stats.OpenConnections,
				InUse:           stats.InUse,
				Idle:            stats.Idle,
				WaitCount:       stats.WaitCount,
			}
		}
	}
	h.Success(c, info)
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health answers 200 when the database is reachable, 503 otherwise.
// It is mounted outside /api/v1 for load balancer probes.
func (h *SystemHandler) Health(c *gin.Context) {
	status := gin.H{"status": "healthy", "database": "ok"}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: status})
			return
		}
	}
	h.Success(c, status)
}
