package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/trustguard/internal/feeds"
)

// FeedStatusReader reports per-feed snapshot state.
type FeedStatusReader interface {
	Statuses() []feeds.Status
}

type feedHealth struct {
	Name       string  `json:"name"`
	Entries    int     `json:"entries"`
	FetchedAt  *string `json:"fetched_at"`
	AgeSeconds float64 `json:"age_seconds"`
	Fresh      bool    `json:"fresh"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Feeds  []feedHealth `json:"feeds"`
}

// HealthRoutes serves liveness and the root redirect.
type HealthRoutes struct {
	feeds FeedStatusReader
}

// NewHealthRoutes constructs health routes. feeds may be nil.
func NewHealthRoutes(feeds FeedStatusReader) *HealthRoutes {
	return &HealthRoutes{feeds: feeds}
}

// RegisterRoutes registers health endpoints.
func (r *HealthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/healthz", r.handleHealth)
	s.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/mcp.json")
	})
}

func (r *HealthRoutes) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok", Feeds: make([]feedHealth, 0)}
	if r.feeds != nil {
		for _, status := range r.feeds.Statuses() {
			item := feedHealth{
				Name:    status.Name,
				Entries: status.Entries,
				Fresh:   status.Fresh,
			}
			if !status.FetchedAt.IsZero() {
				fetchedAt := status.FetchedAt.UTC().Format(time.RFC3339)
				item.FetchedAt = &fetchedAt
				item.AgeSeconds = status.Age.Seconds()
			}
			resp.Feeds = append(resp.Feeds, item)
		}
	}
	return c.JSON(http.StatusOK, resp)
}
