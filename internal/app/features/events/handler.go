// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgEventNotFound    = "Event not found"
	MsgGroupNotFound    = "Group not found"
	MsgInvalidEventID   = "Invalid event id"
	MsgInvalidUpdates   = "Invalid updates!"
	MsgInvalidDate      = "Event date is invalid"
	MsgInvalidTime      = "Times must be in HH:MM format"
	MsgInvalidLocation  = "Invalid location"
	MsgNoImageData      = "No image data provided"
	MsgSlotsBelowCount  = "Slots cannot be fewer than current attendees"
	MsgMustBeMember     = "You must be a member of this group to attend events"
	MsgAlreadyAttending = "You are already attending this event"
	MsgNotAttending     = "You are not attending this event"
	MsgEventFull        = "Event is full"

	bannerPrefix = "event-banners"
)

// Handler serves group events and attendance.
type Handler struct {
	Events  *eventstore.Store
	Groups  *groupstore.Store
	Engine  *membership.Engine
	Objects objectstore.Store
	Log     *zap.Logger
}

func NewHandler(events *eventstore.Store, groups *groupstore.Store, engine *membership.Engine, objects objectstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Groups: groups, Engine: engine, Objects: objects, Log: logger}
}

// event loads the {id} event together with its group.
func (h *Handler) event(ctx context.Context, r *http.Request) (*models.Event, *models.Group, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, apperr.Validation(MsgInvalidEventID)
	}
	e, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, eventstore.ErrNotFound) {
		return nil, nil, apperr.NotFound(MsgEventNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	g, err := h.Groups.GetByID(ctx, e.GroupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		return nil, nil, apperr.NotFound(MsgGroupNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return e, g, nil
}

func (h *Handler) requireManager(ctx context.Context, g *models.Group, userID primitive.ObjectID) error {
	ok, err := h.Engine.CanManage(ctx, g, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(membership.MsgCannotManage)
	}
	return nil
}

// storeErr maps event store sentinels to client errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, eventstore.ErrNotFound):
		return apperr.NotFound(MsgEventNotFound)
	case errors.Is(err, eventstore.ErrAlreadyAttending):
		return apperr.Validation(MsgAlreadyAttending)
	case errors.Is(err, eventstore.ErrNotAttending):
		return apperr.Validation(MsgNotAttending)
	case errors.Is(err, eventstore.ErrFull):
		return apperr.Validation(MsgEventFull)
	}
	return err
}
