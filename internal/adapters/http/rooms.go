package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/app"
	"github.com/avoronov/signalhub/internal/domain"
	"github.com/avoronov/signalhub/internal/store"
	"github.com/avoronov/signalhub/pkg/auth"
)

const guestTokenTTL = 12 * time.Hour

// RoomsAPI serves the room management REST surface. Occupancy in list
// and get responses is taken live from the membership registry, not
// from the persisted row.
type RoomsAPI struct {
	DB   *store.Postgres
	Orch *app.Orchestrator
	JWT  *auth.JWT
}

// BearerAuth validates an Authorization: Bearer token and stores the
// verified subject on the request context.
func BearerAuth(jwt *auth.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := jwt.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user_id", claims.Subject)
		c.Set("display_name", claims.DisplayName)
		c.Next()
	}
}

func (a *RoomsAPI) IssueToken(c *gin.Context) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = "guest"
	}
	if err := domain.ValidateDisplayName(req.DisplayName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := c.GetString("client_token")
	token, err := a.JWT.Sign(subject, req.DisplayName, guestTokenTTL)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "displayName": req.DisplayName})
}

func (a *RoomsAPI) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rooms, err := a.DB.ListRooms(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	for i := range rooms {
		rooms[i].Occupancy = a.Orch.Registry().Occupancy(rooms[i].ID)
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "limit": limit, "offset": offset})
}

func (a *RoomsAPI) Get(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	room, err := a.DB.GetRoom(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("get room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	room.Occupancy = a.Orch.Registry().Occupancy(room.ID)
	c.JSON(http.StatusOK, gin.H{"room": room, "protected": room.Protected()})
}

func (a *RoomsAPI) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	if err := domain.ValidateRoomName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := c.GetString("user_id")
	room, err := a.DB.CreateRoom(c.Request.Context(), req.Name, req.Password, ownerID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("room", string(room.ID)).Str("owner", ownerID).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (a *RoomsAPI) VerifyPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}

	id := domain.RoomID(c.Param("id"))
	err := a.DB.VerifyPassword(c.Request.Context(), id, req.Password)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, store.ErrBadPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong password"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("verify password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify failed"})
	}
}

func (a *RoomsAPI) Delete(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	ownerID := c.GetString("user_id")

	err := a.DB.DeleteRoom(c.Request.Context(), id, ownerID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, store.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the room owner"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("delete room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
	}
}
