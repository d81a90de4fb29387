// internal/app/features/search/handler.go
package search

import (
	"context"
	"net/http"
	"strconv"

	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/paging"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const (
	// DefaultMiles is the radius used when lat/lng are given without distance.
	DefaultMiles = 10.0

	MsgInvalidCoordinates = "Invalid coordinates"
	MsgInvalidDistance    = "Invalid distance"
)

type Handler struct {
	Groups *groupstore.Store
	Log    *zap.Logger
}

func NewHandler(groups *groupstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Log: logger}
}

type result struct {
	Groups []models.Group `json:"groups"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// Search handles GET /search?search=&category=&lat=&lng=&distance=&page=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	pg := paging.Parse(r, paging.DefaultLimit)
	params := groupstore.SearchParams{
		Text:  normalize.QueryParam(query.Get(r, "search")),
		Topic: normalize.QueryParam(query.Get(r, "category")),
		Skip:  pg.Skip(),
		Limit: pg.Limit64(),
	}

	near, msg := parseNear(r)
	if msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}
	params.Near = near

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.Groups.Search(ctx, params)
	if err != nil {
		respond.Err(w, h.Log, err, "search groups", zap.String("search", params.Text))
		return
	}
	respond.OK(w, result{Groups: groups, Page: pg.Number, Limit: pg.Limit})
}

// parseNear reads lat, lng, and distance. A location filter applies only when
// both coordinates are present.
func parseNear(r *http.Request) (*groupstore.Near, string) {
	latS := normalize.QueryParam(query.Get(r, "lat"))
	lngS := normalize.QueryParam(query.Get(r, "lng"))
	if latS == "" || lngS == "" {
		return nil, ""
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lng, err2 := strconv.ParseFloat(lngS, 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, MsgInvalidCoordinates
	}

	miles := DefaultMiles
	if d := normalize.QueryParam(query.Get(r, "distance")); d != "" {
		v, err := strconv.ParseFloat(d, 64)
		if err != nil || v <= 0 {
			return nil, MsgInvalidDistance
		}
		miles = v
	}
	return &groupstore.Near{Lat: lat, Lng: lng, Miles: miles}, ""
}
