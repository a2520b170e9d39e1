package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/gin-gonic/gin"
)

const statusMessage = "Deepfake Detection API is running"

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type AnalysisService interface {
	Analyze(ctx context.Context, user *models.User, filename, contentType string, data []byte) (*models.AnalysisResult, error)
}

type HistoryService interface {
	List(ctx context.Context, user *models.User, limit int) ([]*models.AnalysisRecord, error)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type statusResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type handlers struct {
	users          UserService
	analysis       AnalysisService
	history        HistoryService
	ready          func() bool
	maxUploadBytes int64
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: statusMessage, ModelLoaded: h.ready()})
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: email and password are required", common.ErrInvalidInput))
		return
	}

	if _, err := h.users.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

// token implements the OAuth2 password grant form: username and password.
func (h *handlers) token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		abortWithError(c, common.ErrInvalidCredentials)
		return
	}

	token, err := h.users.Login(c.Request.Context(), username, password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *handlers) analyzeImage(c *gin.Context) {
	// Leave room for multipart framing around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, common.ErrPayloadTooLarge)
			return
		}
		abortWithError(c, fmt.Errorf("%w: multipart field \"file\" is required", common.ErrInvalidInput))
		return
	}
	if fh.Size > h.maxUploadBytes {
		abortWithError(c, common.ErrPayloadTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: cannot read upload", common.ErrInvalidInput))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: cannot read upload", common.ErrInvalidInput))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		abortWithError(c, common.ErrPayloadTooLarge)
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), currentUser(c), fh.Filename,
		mediaType(fh.Header.Get("Content-Type")), data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) listHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: limit must be an integer", common.ErrInvalidInput))
			return
		}
		limit = n
	}

	recs, err := h.history.List(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
