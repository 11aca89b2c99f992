package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opinions/internal/enums"
	"opinions/internal/memstore"
	"opinions/internal/metrics"
	"opinions/internal/middleware"
	"opinions/internal/models"
	"opinions/internal/services"
)

const testUserHeader = "X-Test-User"

type server struct {
	t      *testing.T
	engine *gin.Engine
	store  *memstore.Store

	alice, bob, mod *models.User
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	store := memstore.New()
	s := &server{
		t:     t,
		store: store,
		alice: store.AddUser(&models.User{Username: "alice"}),
		bob:   store.AddUser(&models.User{Username: "bob"}),
		mod:   store.AddUser(&models.User{Username: "mod", Role: models.RoleModerator}),
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	content := services.NewContentService(store, log)
	reviews := services.NewReviewService(store, store, store, m, log)
	vis := services.NewVisibilityResolver(store, store)
	reactions := services.NewReactionService(enums.NewReactionConfig(), store, store, reviews, log)
	listing := services.NewListingService(store, vis, store, m, log, enums.DefaultPerPage)

	r := gin.New()
	// 测试中用请求头代替 session 登录
	r.Use(func(c *gin.Context) {
		var id uint
		if _, err := fmt.Sscan(c.GetHeader(testUserHeader), &id); err == nil {
			if u, err := store.User(c.Request.Context(), id); err == nil {
				c.Set(middleware.CheckUserKey, u)
			}
		}
		c.Next()
	})
	RegisterRoutes(r, Deps{
		Content:       content,
		Listing:       listing,
		Reactions:     reactions,
		Reviews:       reviews,
		Visibility:    vis,
		Notifications: store,
		Gatherer:      reg,
		PerPage:       enums.DefaultPerPage,
		Log:           log,
	})
	s.engine = r
	return s
}

func (s *server) do(method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(testUserHeader, fmt.Sprint(user.ID))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *server) publish(title, content string) (pid string, id uint) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/opinions", s.alice, gin.H{
		"title": title, "content": content, "categories": []string{"Go"}, "publish": true,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(s.t, w)
	return body["pid"].(string), uint(body["id"].(float64))
}

func TestCreateAndList(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/opinions", nil, gin.H{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/opinions", s.alice, gin.H{"title": "only title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pid, _ := s.publish("Tabs", "**Tabs** are better than spaces.")

	w = s.do(http.MethodPost, "/opinions", s.alice, gin.H{"title": "Draft", "content": "not yet"})
	require.Equal(t, http.StatusCreated, w.Code)
	draft := decode(t, w)
	assert.Equal(t, "Draft", draft["status"].(map[string]interface{})["name"])

	w = s.do(http.MethodGet, "/opinions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 1, page["total"])
	items := page["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, pid, items[0].(map[string]interface{})["content"].(map[string]interface{})["pid"])

	w = s.do(http.MethodGet, "/opinions?status=all&author=ali", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	// 别人的草稿不出现在列表中
	w = s.do(http.MethodGet, "/opinions?status=draft", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
	w = s.do(http.MethodGet, "/opinions?status=all", s.bob, nil)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// 草稿对其他人不可见
	w = s.do(http.MethodGet, "/opinions/"+draft["pid"].(string), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/opinions/"+draft["pid"].(string), s.alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/opinions/"+pid, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	assert.Contains(t, detail["html"], "<strong>Tabs</strong>")
	assert.Equal(t, "Tabs are better than spaces.", detail["summary"])
	assert.NotContains(t, detail, "reviews")

	w = s.do(http.MethodGet, "/opinions/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["error"])
}

func TestStatusAndComments(t *testing.T) {
	s := newServer(t)
	pid, _ := s.publish("Tabs", "tabs")

	w := s.do(http.MethodPost, "/opinions/"+pid+"/status", s.bob, gin.H{"status": "draft"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPost, "/opinions/"+pid+"/status", s.alice, gin.H{"status": "acceptable"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodPost, "/opinions/"+pid+"/status", s.alice, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/opinions/"+pid+"/comments", s.bob, gin.H{"content": "disagree", "publish": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	top := decode(t, w)
	assert.Equal(t, "Published", top["status"].(map[string]interface{})["name"])
	topID := uint(top["id"].(float64))

	w = s.do(http.MethodPost, "/opinions/"+pid+"/comments", s.alice, gin.H{"content": "why?", "parent_id": topID, "publish": true})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["level"])

	w = s.do(http.MethodGet, "/comments?opinion="+pid, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = s.do(http.MethodGet, "/comments?opinion="+pid+"&author=bob", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// 删除评论连带删除回复
	w = s.do(http.MethodPost, fmt.Sprintf("/comments/%d/status", topID), s.bob, gin.H{"status": "deleted"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/comments?opinion="+pid, nil, nil)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	w = s.do(http.MethodPost, "/opinions/"+pid+"/status", s.alice, gin.H{"status": "deleted"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/opinions/"+pid, s.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReactions(t *testing.T) {
	s := newServer(t)
	_, id := s.publish("Tabs", "tabs")
	path := fmt.Sprintf("/react/opinion/%d/", id)

	w := s.do(http.MethodPost, path+"agree", s.bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode(t, w)
	assert.EqualValues(t, 1, state["agree"])
	assert.Equal(t, "agree", state["agreement"])

	w = s.do(http.MethodPost, path+"disagree", s.bob, nil)
	state = decode(t, w)
	assert.EqualValues(t, 0, state["agree"])
	assert.EqualValues(t, 1, state["disagree"])

	w = s.do(http.MethodPost, path+"follow", s.bob, nil)
	assert.Equal(t, true, decode(t, w)["following"])
	w = s.do(http.MethodPost, path+"follow", s.alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reaction_not_allowed", decode(t, w)["error"])

	w = s.do(http.MethodPost, path+"hide", s.bob, nil)
	assert.Equal(t, true, decode(t, w)["hidden"])
	w = s.do(http.MethodGet, "/opinions", s.bob, nil)
	assert.EqualValues(t, 0, decode(t, w)["total"])
	w = s.do(http.MethodGet, "/opinions?hidden=yes", s.bob, nil)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(http.MethodPost, path+"shrug", s.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/react/post/1/agree", s.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/react/opinion/999/agree", s.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationWorkflow(t *testing.T) {
	s := newServer(t)
	pid, id := s.publish("Tabs", "tabs")
	report := fmt.Sprintf("/report/opinion/%d", id)

	w := s.do(http.MethodPost, report, s.bob, gin.H{"reason": "rude"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode(t, w)
	recID := uint(rec["id"].(float64))
	assert.Equal(t, "Pending Review", rec["status"].(map[string]interface{})["name"])

	w = s.do(http.MethodPost, report, s.bob, gin.H{"reason": "rude"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_under_review", decode(t, w)["error"])

	// 审核中的内容只对作者和审核员可见
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/opinions/"+pid, nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/opinions/"+pid, s.alice, nil).Code)
	w = s.do(http.MethodGet, "/opinions/"+pid, s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["reviews"], 1)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/moderation/reviews", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/moderation/reviews", s.bob, nil).Code)
	w = s.do(http.MethodGet, "/moderation/reviews", s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	queue := decode(t, w)
	assert.EqualValues(t, 1, queue["total"])
	assert.Equal(t, []interface{}{"review_in_progress"}, queue["status"])

	// 状态取值支持模糊匹配
	w = s.do(http.MethodGet, "/moderation/reviews?status=pending", s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	queue = decode(t, w)
	assert.EqualValues(t, 1, queue["total"])
	assert.Equal(t, []interface{}{"pending_review"}, queue["status"])
	w = s.do(http.MethodGet, "/moderation/reviews?status=over", s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
	w = s.do(http.MethodGet, "/moderation/reviews?status=zzz", s.mod, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/reviews/%d/withdraw", recID), s.alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/moderation/reviews/%d/assign", recID), s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assigned := decode(t, w)
	assert.Equal(t, "Under Review", assigned["status"].(map[string]interface{})["name"])
	nextID := uint(assigned["id"].(float64))

	w = s.do(http.MethodPost, fmt.Sprintf("/moderation/reviews/%d/decide", nextID), s.mod, gin.H{"decision": "published"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodPost, fmt.Sprintf("/moderation/reviews/%d/decide", nextID), s.mod, gin.H{"decision": "acceptable", "note": "fine"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Acceptable", decode(t, w)["status"].(map[string]interface{})["name"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/opinions/"+pid, nil, nil).Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/moderation/history/opinion/%d", id), s.mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 3)

	w = s.do(http.MethodGet, "/notifications", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode(t, w)["items"].([]interface{})
	require.Len(t, notes, 2)
	assert.Equal(t, "review_decided", notes[0].(map[string]interface{})["type"])
	assert.Equal(t, "report_received", notes[1].(map[string]interface{})["type"])

	w = s.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `opinions_review_transitions_total{outcome="ok",transition="assign"} 1`)
}

func TestWithdraw(t *testing.T) {
	s := newServer(t)
	_, id := s.publish("Tabs", "tabs")

	w := s.do(http.MethodPost, fmt.Sprintf("/react/opinion/%d/report", id), s.bob, gin.H{"reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recID := uint(decode(t, w)["review_id"].(float64))
	require.NotZero(t, recID)

	w = s.do(http.MethodPost, fmt.Sprintf("/reviews/%d/withdraw", recID), s.bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Withdrawn", decode(t, w)["status"].(map[string]interface{})["name"])

	w = s.do(http.MethodPost, fmt.Sprintf("/reviews/%d/withdraw", recID), s.bob, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/reviews/abc/withdraw", s.bob, nil).Code)
}
