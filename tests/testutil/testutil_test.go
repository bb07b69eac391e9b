package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
	assert.Equal(t, TestUserID(), NewTestUUID("test-user"))
}

func TestRequireEventually(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(30 * time.Millisecond)
		close(done)
	}()

	RequireEventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond)
}

func TestDo(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"name": body["name"], "trace": c.GetHeader("X-Trace")},
		})
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_REQUEST", "message": "bad"},
		})
	})

	w := Do(t, engine, Request{
		Method:  http.MethodPost,
		Path:    "/echo",
		Body:    map[string]string{"name": "bulk"},
		Headers: map[string]string{"X-Trace": "abc"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	env := Decode[map[string]string](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "bulk", env.Data["name"])
	assert.Equal(t, "abc", env.Data["trace"])

	AssertErrorCode(t, Do(t, engine, Request{Path: "/fail"}), http.StatusBadRequest, "INVALID_REQUEST")
}
