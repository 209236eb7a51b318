package utils

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ParsePage 解析 limit/offset 查询参数，非法值回退到默认值
func ParsePage(c *gin.Context) (limit, offset int) {
	limit = DefaultPageLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, MaxPageLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// Paginated 构造分页响应，next/previous 为带 limit/offset 的完整链接
func Paginated(c *gin.Context, count int64, limit, offset int, results interface{}) Page {
	page := Page{Count: count, Results: results}
	if int64(offset+limit) < count {
		next := pageURL(c, limit, offset+limit)
		page.Next = &next
	}
	if offset > 0 {
		prev := pageURL(c, limit, max(offset-limit, 0))
		page.Previous = &prev
	}
	return page
}

func pageURL(c *gin.Context, limit, offset int) string {
	u := url.URL{
		Scheme: "http",
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	if c.Request.TLS != nil {
		u.Scheme = "https"
	}
	q := c.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String()
}
