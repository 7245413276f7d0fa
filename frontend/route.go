package frontend

import (
	_ "embed"
	"net/http"
	"path/filepath"
	"strings"

	"ffxiv_damage/analysispool"
	"ffxiv_damage/fights"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed public/live.htm
var liveHTML []byte

var (
	websocketUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

type Options struct {
	Pool    *analysispool.Pool
	Presets *fights.Presets

	// directory holding the generated index.html
	ReportDir string
}

func Route(g *gin.Engine, opt Options) {
	g.Use(gin.ErrorLogger())
	g.Use(gin.Recovery())

	g.NoMethod(func(c *gin.Context) { c.Redirect(http.StatusTemporaryRedirect, "/") })
	g.NoRoute(func(c *gin.Context) { c.Redirect(http.StatusTemporaryRedirect, "/") })

	g.StaticFile("/", filepath.Join(opt.ReportDir, "index.html"))
	g.GET("/live", func(c *gin.Context) { c.Data(http.StatusOK, "text/html; charset=utf-8", liveHTML) })
	g.GET("/presets", routePresets(opt.Presets))
	g.GET("/analysis", routeRequest(opt.Pool))
}

func routePresets(presets *fights.Presets) gin.HandlerFunc {
	type preset struct {
		Name     string `json:"name"`
		ReportID string `json:"report_id"`
		FightID  int    `json:"fight_id"`
	}

	return func(c *gin.Context) {
		enabled := presets.Enabled()

		resp := make([]preset, 0, len(enabled))
		for _, f := range enabled {
			resp = append(resp, preset{f.Name, f.ReportID, f.FightID})
		}
		c.JSON(http.StatusOK, resp)
	}
}

func routeRequest(pool *analysispool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := websocketUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			zap.L().Debug("websocket upgrade", zap.Error(err))
			return
		}

		pool.Do(c.Request.Context(), ws, remoteAddr(c))
	}
}

func remoteAddr(c *gin.Context) string {
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		if idx := strings.IndexByte(v, ','); idx >= 0 {
			v = v[:idx]
		}
		return strings.TrimSpace(v)
	}
	if v := c.GetHeader("X-Real-Ip"); v != "" {
		return v
	}

	addr := c.Request.RemoteAddr
	if idx := strings.LastIndexByte(addr, ':'); idx >= 0 {
		addr = addr[:idx]
	}
	return addr
}
