package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"opinions/internal/enums"
	"opinions/internal/middleware"
	"opinions/internal/models"
	"opinions/internal/services"
)

func TestRenderError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		want int
	}{
		{models.NotFoundError{Resource: "opinion"}, http.StatusNotFound},
		{services.ErrNotAuthor, http.StatusForbidden},
		{errors.Wrap(services.ErrAlreadyUnderReview, "report"), http.StatusConflict},
		{services.ErrConcurrentTransition, http.StatusConflict},
		{services.ErrInvalidContent, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RenderError(c, zerolog.Nop(), tt.err)
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RenderError(c, zerolog.Nop(), errors.New("db password leaked"))
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRefParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got models.ContentRef
	r.GET("/:type/:id", func(c *gin.Context) {
		ref, ok := refParam(c)
		if !ok {
			return
		}
		got = ref
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/comment/7", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ContentRef{Kind: enums.KindComment, ID: 7}, got)

	for _, path := range []string{"/post/7", "/opinion/0", "/opinion/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestViewerOf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, services.Viewer{}, viewerOf(c))

	c.Set(middleware.CheckUserKey, &models.User{ID: 3, Role: models.RoleAdmin})
	assert.Equal(t, services.Viewer{ID: 3, Moderator: true}, viewerOf(c))
	assert.EqualValues(t, 3, currentUserID(c))
}
