package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yksanjo/roblox-world-generator/internal/jobs"
	"github.com/yksanjo/roblox-world-generator/internal/storage"
	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/preview"
	"github.com/yksanjo/roblox-world-generator/pkg/prompt"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/validation"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	listPromptLen    = 100
	maxSpecBytes     = 1 << 20
)

// generateRequest mirrors jobs.Request with optional fields so defaults
// can be told apart from explicit values.
type generateRequest struct {
	Prompt            string     `json:"prompt"`
	Spec              *spec.Spec `json:"spec"`
	WorldSize         *int       `json:"world_size"`
	Complexity        string     `json:"complexity"`
	Style             string     `json:"style"`
	IncludeTerrain    *bool      `json:"include_terrain"`
	IncludeStructures *bool      `json:"include_structures"`
	IncludeObjects    *bool      `json:"include_objects"`
	Seed              *int64     `json:"seed"`
	Noise             string     `json:"noise"`
}

type generateResponse struct {
	JobID   string      `json:"job_id"`
	Status  jobs.Status `json:"status"`
	Message string      `json:"message"`
}

type jobSummary struct {
	JobID     string      `json:"job_id"`
	Status    jobs.Status `json:"status"`
	Progress  int         `json:"progress"`
	CreatedAt string      `json:"created_at"`
	Prompt    string      `json:"prompt"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (s *Server) handleGenerate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.Prompt == "" && body.Spec == nil {
		abort(c, http.StatusBadRequest, "prompt is required")
		return
	}

	gen := s.cfg.Generation
	size := gen.DefaultWorldSize
	if body.WorldSize != nil {
		size = *body.WorldSize
	}
	if size < gen.MinWorldSize || size > gen.MaxWorldSize {
		abort(c, http.StatusBadRequest,
			fmt.Sprintf("world_size must be between %d and %d", gen.MinWorldSize, gen.MaxWorldSize))
		return
	}

	complexity, ok := prompt.ParseComplexity(body.Complexity)
	if !ok {
		abort(c, http.StatusBadRequest, "complexity must be one of low, medium, high")
		return
	}

	var mode noise.Mode
	if body.Noise != "" {
		if mode, ok = noise.ParseMode(body.Noise); !ok {
			abort(c, http.StatusBadRequest, "noise must be one of uniform, perlin, simplex")
			return
		}
	}

	j, err := s.jobs.Submit(jobs.Request{
		Prompt:            body.Prompt,
		Spec:              body.Spec,
		WorldSize:         size,
		Complexity:        complexity,
		Style:             body.Style,
		IncludeTerrain:    boolOr(body.IncludeTerrain, true),
		IncludeStructures: boolOr(body.IncludeStructures, true),
		IncludeObjects:    boolOr(body.IncludeObjects, true),
		Seed:              body.Seed,
		Noise:             mode,
	})
	switch {
	case errors.Is(err, jobs.ErrEmptyRequest):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrClosed):
		abort(c, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		JobID:   j.ID,
		Status:  j.Status,
		Message: "World generation started",
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	j, err := s.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")
	raw, err := s.jobs.Raw(c.Request.Context(), id)
	if err != nil {
		s.jobError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="world_%s.rbxlx"`, id))
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) handlePreview(c *gin.Context) {
	doc, err := s.jobs.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview.Assemble(doc))
}

func (s *Server) handleJobs(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.jobs.List(c.Request.Context(), limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]jobSummary, 0, len(list))
	for _, j := range list {
		out = append(out, jobSummary{
			JobID:     j.ID,
			Status:    j.Status,
			Progress:  j.Progress,
			CreatedAt: j.CreatedAt.Format(time.RFC3339Nano),
			Prompt:    truncate(j.Prompt, listPromptLen),
		})
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// handleValidate schema-checks a JSON or YAML spec document and, when it is
// structurally sound, reports the normalization it would undergo.
func (s *Server) handleValidate(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSpecBytes+1))
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("reading body: %v", err))
		return
	}
	if len(data) > maxSpecBytes {
		abort(c, http.StatusRequestEntityTooLarge, "spec document too large")
		return
	}

	report := validation.ValidateDocument(data)
	resp := gin.H{"report": report}
	if report.Valid {
		parsed, err := spec.Parse(data)
		if err != nil {
			report.AddError(validation.Result{
				Level:    validation.LevelSchema,
				Message:  err.Error(),
				SpecPath: "/",
			})
		} else {
			w, norm := spec.Normalize(parsed)
			report.Merge(norm)
			resp["world"] = w
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) jobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		abort(c, http.StatusNotFound, "Job not found")
	case errors.Is(err, jobs.ErrNotCompleted):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		abort(c, http.StatusNotFound, "World file not found")
	default:
		s.logger.Printf("job %s: %v", c.Param("id"), err)
		abort(c, http.StatusInternalServerError, err.Error())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
