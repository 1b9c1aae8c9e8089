package handlers

import (
	"net/http"

	"places/auth"
	"places/locations"
	"places/models"
	"places/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type PlaceCreateRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required,min=5"`
	Address     string `form:"address" binding:"required"`
}

type PlaceUpdateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

type PlaceInfo struct {
	ID          uint64                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Image       string                `json:"image"`
	Address     string                `json:"address"`
	Location    locations.Coordinates `json:"location"`
	Creator     uint64                `json:"creator"`
	TimeZone    string                `json:"timeZone,omitempty"`
}

func NewPlaceInfo(p *models.Place) PlaceInfo {
	return PlaceInfo{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Address:     p.Address,
		Location:    locations.Coordinates{Lat: p.Lat, Lng: p.Lng},
		Creator:     p.CreatorID,
		TimeZone:    p.TimeZone,
	}
}

func (h *Handler) PlaceGet(c *gin.Context) {
	placeID, err := parseID(c, "placeId", models.ErrPlaceNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	place, err := h.Repo.FindPlaceByID(c.Request.Context(), placeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": NewPlaceInfo(place)})
}

// PlaceListByUser returns an empty list for users without places
func (h *Handler) PlaceListByUser(c *gin.Context) {
	userID, err := parseID(c, "userId", models.ErrUserNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	places, err := h.Repo.FindPlacesByCreator(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	result := make([]PlaceInfo, 0, len(places))
	for i := range places {
		result = append(result, NewPlaceInfo(&places[i]))
	}
	c.JSON(http.StatusOK, gin.H{"places": result})
}

func (h *Handler) PlaceCreate(c *gin.Context, identity auth.Identity) {
	req := PlaceCreateRequest{}
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		_ = c.Error(invalidInputs(c, err))
		return
	}
	img, err := h.receiveImage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	coords, err := h.Geocoder.Resolve(c.Request.Context(), req.Address)
	if err != nil {
		_ = c.Error(err)
		return
	}

	place := &models.Place{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Image:       storage.PublicPath(img.Name),
	}
	place.SetLocation(coords.Lat, coords.Lng)
	if err = h.Repo.CreatePlace(c.Request.Context(), place, identity.UserID, h.storeImage(c, img)); err != nil {
		_ = c.Error(err)
		return
	}
	keepUploads(c)
	c.JSON(http.StatusCreated, gin.H{"place": NewPlaceInfo(place)})
}

func (h *Handler) PlaceUpdate(c *gin.Context, identity auth.Identity) {
	req := PlaceUpdateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidInputs(c, err))
		return
	}
	placeID, err := parseID(c, "placeId", models.ErrPlaceNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	place, err := h.Repo.UpdatePlace(c.Request.Context(), placeID, identity.UserID, req.Title, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": NewPlaceInfo(place)})
}

func (h *Handler) PlaceDelete(c *gin.Context, identity auth.Identity) {
	placeID, err := parseID(c, "placeId", models.ErrPlaceNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	place, err := h.Repo.DeletePlace(c.Request.Context(), placeID, identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	deleteImage(h.Storage, storage.NameFromPublicPath(place.Image))
	c.JSON(http.StatusOK, gin.H{"message": "Deleted place."})
}
