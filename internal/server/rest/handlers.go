package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/services"
	"github.com/labstack/echo/v4"
)

// UserService is the account API used by the handlers.
type UserService interface {
	Authenticator
	Register(ctx context.Context, username, email, password string) (*services.Session, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// VideoService is the video API used by the handlers.
type VideoService interface {
	Upload(ctx context.Context, ownerID string, file io.ReadSeeker, meta models.VideoMetadata) (*models.Video, error)
	ListAll(ctx context.Context, page services.Page) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, page services.Page) ([]models.Video, error)
	Get(ctx context.Context, id string) (*models.Video, string, error)
}

// multipartOverhead is allowed on top of the file size for form fields and
// part headers.
const multipartOverhead = 1 << 20

type Handlers struct {
	users          UserService
	videos         VideoService
	maxUploadBytes int64
}

func NewHandlers(users UserService, videos VideoService, maxUploadBytes int64) *Handlers {
	return &Handlers{users: users, videos: videos, maxUploadBytes: maxUploadBytes}
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	s, err := h.users.Register(c.Request().Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toSession(s))
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	s, err := h.users.Login(c.Request().Context(), req.UserName, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, toSession(s))
}

// Me handles GET /api/users/me.
func (h *Handlers) Me(c echo.Context) error {
	u, err := h.users.Profile(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// UploadVideo handles POST /api/videos (multipart: file, title, description).
func (h *Handlers) UploadVideo(c echo.Context) error {
	req := c.Request()
	if req.ContentLength > h.maxUploadBytes+multipartOverhead {
		return jsonError(c, http.StatusRequestEntityTooLarge, "file too large")
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return jsonError(c, http.StatusRequestEntityTooLarge, "file too large")
		}
		return jsonError(c, http.StatusBadRequest, "file is required")
	}
	if fh.Size > h.maxUploadBytes {
		return jsonError(c, http.StatusRequestEntityTooLarge, "file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "cannot read file")
	}
	defer f.Close()

	v, err := h.videos.Upload(req.Context(), userIDFrom(c), f, models.VideoMetadata{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		ContentType: fh.Header.Get(echo.HeaderContentType),
		SizeBytes:   fh.Size,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toVideo(v))
}

// ListVideos handles GET /api/videos.
func (h *Handlers) ListVideos(c echo.Context) error {
	page, ok := parsePage(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid limit or offset")
	}

	list, err := h.videos.ListAll(c.Request().Context(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toVideoList(list))
}

// ListUserVideos handles GET /api/users/:id/videos.
func (h *Handlers) ListUserVideos(c echo.Context) error {
	page, ok := parsePage(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid limit or offset")
	}

	list, err := h.videos.ListByOwner(c.Request().Context(), c.Param("id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toVideoList(list))
}

// GetVideo handles GET /api/videos/:id.
func (h *Handlers) GetVideo(c echo.Context) error {
	v, playbackURL, err := h.videos.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	resp := toVideo(v)
	resp.PlaybackURL = playbackURL
	return c.JSON(http.StatusOK, resp)
}

func parsePage(c echo.Context) (services.Page, bool) {
	var p services.Page
	var err error
	if s := c.QueryParam("limit"); s != "" {
		if p.Limit, err = strconv.Atoi(s); err != nil {
			return p, false
		}
	}
	if s := c.QueryParam("offset"); s != "" {
		if p.Offset, err = strconv.Atoi(s); err != nil {
			return p, false
		}
	}
	return p, true
}
