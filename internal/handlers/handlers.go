// Package handlers implements the HTTP surface the wizard UI and installer
// talk to. The core pipeline itself has no wire protocol; this package is
// the thin wrapper that exposes it as JSON over gin.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oremus-labs/wsconfig-core/internal/events"
	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/logutil"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/recommend"
	"github.com/oremus-labs/wsconfig-core/internal/store"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// Options configures a Handler beyond its direct dependencies.
type Options struct {
	Version       string
	HistoryLimit  int
	ModelCacheDir string
	UseCases      map[string]userprofile.UseCase
}

// Handler bundles every dependency the HTTP surface needs. All fields may
// be exercised independently (catalog reads, probes, persistence) so each
// handler degrades gracefully when an optional collaborator is nil.
type Handler struct {
	catalog *modelcatalog.Catalog
	store   *store.Store
	bus     *events.Bus
	opts    Options
}

// New constructs a Handler.
func New(catalog *modelcatalog.Catalog, st *store.Store, bus *events.Bus, opts Options) *Handler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	if opts.UseCases == nil {
		opts.UseCases = userprofile.DefaultUseCases
	}
	return &Handler{catalog: catalog, store: st, bus: bus, opts: opts}
}

// Health reports basic liveness plus the loaded catalog size.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.opts.Version,
		"catalog": h.catalog.Count(),
	})
}

// ListCatalog returns every catalog entry, optionally filtered by modality
// via ?modality=image.
func (h *Handler) ListCatalog(c *gin.Context) {
	modality := c.Query("modality")
	var entries []*modelcatalog.Entry
	if modality != "" {
		entries = h.catalog.CandidatesFor(modelcatalog.Modality(modality))
	} else {
		entries = h.catalog.All()
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// GetCatalogEntry returns one catalog entry by id.
func (h *Handler) GetCatalogEntry(c *gin.Context) {
	id := c.Param("id")
	entry := h.catalog.Get(id)
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found", "modelId": id})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Detect runs the hardware probe and, when a store is configured, persists
// the resulting snapshot for later recommend calls and history.
func (h *Handler) Detect(c *gin.Context) {
	start := time.Now()
	profile, err := hwprofile.Detect(c.Request.Context(), hwprofile.Options{ModelCacheDir: h.opts.ModelCacheDir})
	if err != nil {
		h.writeProbeError(c, err)
		return
	}
	logutil.Info("hardware detect handled", map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})

	if h.store != nil {
		if err := h.store.SaveHardwareSnapshot(uuid.NewString(), profile); err != nil {
			logutil.Error("failed to persist hardware snapshot", err, nil)
		}
	}
	c.JSON(http.StatusOK, profile)
}

// recommendRequest is the JSON body for POST /recommend.
type recommendRequest struct {
	UserProfile       userprofile.UserProfile          `json:"userProfile"`
	HardwareProfile   *hwprofile.HardwareProfile        `json:"hardwareProfile,omitempty"`
	UseCasePriorities map[string]int                    `json:"useCasePriorities,omitempty"`
}

// Recommend runs the full pipeline. If the request body
// omits a hardware profile, the most recent stored snapshot is used; if
// none is stored, the caller must detect first.
func (h *Handler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := req.HardwareProfile
	if profile == nil {
		if h.store == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hardwareProfile is required when no datastore is configured"})
			return
		}
		stored, _, err := h.store.LatestHardwareSnapshot()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no hardware profile supplied and no snapshot on record; call /detect first"})
			return
		}
		profile = stored
	}

	priorities := make(map[modelcatalog.Modality]int, len(req.UseCasePriorities))
	for k, v := range req.UseCasePriorities {
		priorities[modelcatalog.Modality(k)] = v
	}

	result, err := recommend.Recommend(c.Request.Context(), req.UserProfile, profile, h.catalog, recommend.Options{
		UseCasePriorities: priorities,
		UseCaseRegistry:   h.opts.UseCases,
	})
	if err != nil {
		h.writeRecommendError(c, err)
		return
	}

	if h.store != nil {
		if err := h.store.SaveRecommendation(result, profile, req.UserProfile); err != nil {
			logutil.Error("failed to persist recommendation run", err, nil)
		}
	}
	if h.bus != nil {
		modalities := make([]string, 0, len(result.PerModalityRankings))
		for m := range result.PerModalityRankings {
			modalities = append(modalities, string(m))
		}
		if err := h.bus.Publish(c.Request.Context(), events.NewRecommendationReadyEvent(result.ID, modalities)); err != nil {
			logutil.Error("failed to publish recommendation.ready", err, nil)
		}
	}
	c.JSON(http.StatusOK, result)
}

// GetRecommendation replays a previously computed result by id, for the
// wizard's back button.
func (h *Handler) GetRecommendation(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "history is disabled (no datastore configured)"})
		return
	}
	result, err := h.store.GetRecommendation(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// History returns the most recent recommendation runs.
func (h *Handler) History(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []recommend.RecommendationResult{}})
		return
	}
	limit := h.opts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	runs, err := h.store.History(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// StreamEvents relays the event bus over Server-Sent Events, one
// subscriber channel per connection.
func (h *Handler) StreamEvents(c *gin.Context) {
	if h.bus == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event bus not configured"})
		return
	}
	ch, cancel, err := h.bus.Subscribe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cancel()

	done := metrics.TrackSSEConnection()
	defer done()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) writeProbeError(c *gin.Context, err error) {
	var fatal *hwprofile.FatalProbeError
	var invariant *hwprofile.InvariantViolated
	switch {
	case errors.As(err, &fatal):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "kind": "fatal_probe_error"})
	case errors.As(err, &invariant):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "invariant_violated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) writeRecommendError(c *gin.Context, err error) {
	var noViable *recommend.NoViableCandidates
	var invariant *recommend.InvariantViolated
	var cancelled *recommend.Cancelled
	var validation *userprofile.ValidationError
	switch {
	case errors.As(err, &noViable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "no_viable_candidates", "modality": noViable.Modality})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation_error"})
	case errors.As(err, &invariant):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "invariant_violated"})
	case errors.As(err, &cancelled):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error(), "kind": "cancelled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
