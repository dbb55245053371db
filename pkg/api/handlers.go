package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/strum"
	"github.com/james-see/autokalimba/pkg/voicing"
)

type pointerDownRequest struct {
	Pointer *int   `json:"pointer" binding:"required"`
	Target  string `json:"target" binding:"required"`
}

type pointerUpRequest struct {
	Pointer *int `json:"pointer" binding:"required"`
}

type keyRequest struct {
	Key    string `json:"key" binding:"required"`
	Repeat bool   `json:"repeat"`
}

type stenoRequest struct {
	Bits *uint32 `json:"bits" binding:"required"`
}

type settingsRequest struct {
	LowestBassNote *int         `json:"lowestBassNote"`
	StrumDelay     string       `json:"strumDelay"`
	StrumStyle     *strum.Style `json:"strumStyle"`
}

type settingsResponse struct {
	LowestBassNote int         `json:"lowestBassNote"`
	LowestBassName string      `json:"lowestBassName"`
	StrumDelay     string      `json:"strumDelay"`
	StrumStyle     strum.Style `json:"strumStyle"`
}

func newSettingsResponse(s kalimba.Settings) settingsResponse {
	return settingsResponse{
		LowestBassNote: s.LowestBassNote,
		LowestBassName: voicing.NoteName(s.LowestBassNote),
		StrumDelay:     s.StrumDelay.String(),
		StrumStyle:     s.StrumStyle,
	}
}

func checkPointer(id int) error {
	if id < MinPointerID {
		return fmt.Errorf("pointer id must be at least %d, got %d", MinPointerID, id)
	}
	return nil
}

// listTargets godoc
// @Summary List targets
// @Description Returns every target in catalog order with its active state
// @Tags targets
// @Produce json
// @Success 200 {object} map[string][]kalimba.TargetState
// @Router /targets [get]
func (h *handlers) listTargets(c *gin.Context) {
	states, err := h.player.Targets(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": states})
}

// getTarget godoc
// @Summary Get one target
// @Tags targets
// @Produce json
// @Param name path string true "Target name"
// @Success 200 {object} kalimba.TargetState
// @Failure 404 {object} map[string]string
// @Router /targets/{name} [get]
func (h *handlers) getTarget(c *gin.Context) {
	name := c.Param("name")
	state, ok, err := h.player.Target(c.Request.Context(), name)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown target %q", name)})
		return
	}
	c.JSON(http.StatusOK, state)
}

// pointerDown godoc
// @Summary Press a target with a pointer
// @Description Starts the target unless it is already sounding or the pointer already owns one
// @Tags play
// @Accept json
// @Produce json
// @Param request body pointerDownRequest true "Pointer and target"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pointer/down [post]
func (h *handlers) pointerDown(c *gin.Context) {
	var req pointerDownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := checkPointer(*req.Pointer); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, ok, err := h.player.Target(ctx, req.Target); err != nil {
		h.respondErr(c, err)
		return
	} else if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown target %q", req.Target)})
		return
	}

	started, err := h.player.PointerDown(ctx, *req.Pointer, req.Target)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pointer": *req.Pointer, "target": req.Target, "started": started})
}

// pointerUp godoc
// @Summary Lift a pointer
// @Tags play
// @Accept json
// @Produce json
// @Param request body pointerUpRequest true "Pointer"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /pointer/up [post]
func (h *handlers) pointerUp(c *gin.Context) {
	var req pointerUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := checkPointer(*req.Pointer); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.player.PointerUp(c.Request.Context(), *req.Pointer); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pointer": *req.Pointer})
}

// keyDown godoc
// @Summary Press a key
// @Description Auto-repeat presses and keys already held are ignored
// @Tags play
// @Accept json
// @Produce json
// @Param request body keyRequest true "Key event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /key/down [post]
func (h *handlers) keyDown(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	started, err := h.player.KeyDown(c.Request.Context(), kalimba.KeyEvent{Key: req.Key, Repeat: req.Repeat})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "started": started})
}

// keyUp godoc
// @Summary Release a key
// @Tags play
// @Accept json
// @Produce json
// @Param request body keyRequest true "Key event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /key/up [post]
func (h *handlers) keyUp(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.player.KeyUp(c.Request.Context(), kalimba.KeyEvent{Key: req.Key}); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key})
}

// steno godoc
// @Summary Feed a steno report
// @Description Bits are the 32-bit report, key 0 in the most significant bit
// @Tags play
// @Accept json
// @Produce json
// @Param request body stenoRequest true "Report"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /steno [post]
func (h *handlers) steno(c *gin.Context) {
	var req stenoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.player.StenoReport(c.Request.Context(), *req.Bits); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bits": *req.Bits})
}

// release godoc
// @Summary Release everything
// @Tags play
// @Produce json
// @Success 200 {object} map[string]string
// @Router /release [post]
func (h *handlers) release(c *gin.Context) {
	if err := h.player.ReleaseAll(c.Request.Context()); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

// getSettings godoc
// @Summary Current settings
// @Tags settings
// @Produce json
// @Success 200 {object} settingsResponse
// @Router /settings [get]
func (h *handlers) getSettings(c *gin.Context) {
	s, err := h.player.Settings(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newSettingsResponse(s))
}

// putSettings godoc
// @Summary Change settings
// @Description Omitted fields keep their value. strumDelay is a duration like "40ms".
// @Tags settings
// @Accept json
// @Produce json
// @Param request body settingsRequest true "Settings"
// @Success 200 {object} settingsResponse
// @Failure 400 {object} map[string]string
// @Router /settings [put]
func (h *handlers) putSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var delay *time.Duration
	if req.StrumDelay != "" {
		d, err := time.ParseDuration(req.StrumDelay)
		if err != nil {
			badRequest(c, fmt.Errorf("strumDelay: %w", err))
			return
		}
		if d < 0 {
			badRequest(c, fmt.Errorf("strumDelay must not be negative, got %v", d))
			return
		}
		delay = &d
	}

	s, err := h.player.UpdateSettings(c.Request.Context(), func(s *kalimba.Settings) {
		if req.LowestBassNote != nil {
			s.LowestBassNote = *req.LowestBassNote
		}
		if delay != nil {
			s.StrumDelay = *delay
		}
		if req.StrumStyle != nil {
			s.StrumStyle = *req.StrumStyle
		}
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.logger.Info("settings changed", "lowestBass", s.LowestBassNote, "strumDelay", s.StrumDelay, "strumStyle", s.StrumStyle)
	c.JSON(http.StatusOK, newSettingsResponse(s))
}
