package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParsePage(t *testing.T) {
	limit, offset := ParsePage(newContext("/api/v1/titles"))
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ParsePage(newContext("/api/v1/titles?limit=500&offset=20"))
	assert.Equal(t, MaxPageLimit, limit)
	assert.Equal(t, 20, offset)

	limit, offset = ParsePage(newContext("/api/v1/titles?limit=abc&offset=-1"))
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)
}

func TestPaginatedLinks(t *testing.T) {
	c := newContext("http://example.com/api/v1/titles?year=1994&limit=2&offset=2")

	page := Paginated(c, 5, 2, 2, []int{3, 4})
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/v1/titles?limit=2&offset=4&year=1994", *page.Next)
	assert.Equal(t, "http://example.com/api/v1/titles?limit=2&offset=0&year=1994", *page.Previous)

	page = Paginated(c, 2, 2, 0, []int{1, 2})
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
}
