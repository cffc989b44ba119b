package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// writeJSONWithCache renders v with a weak ETag over its JSON encoding.
// A matching If-None-Match (a single tag, a list, or *) yields 304.
func writeJSONWithCache(
	c *gin.Context,
	status int,
	v any,
	cacheControl string,
) {
	b, err := json.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	sum := sha256.Sum256(b)
	tag := `W/"` + hex.EncodeToString(sum[:16]) + `"`

	c.Header("ETag", tag)
	if cacheControl != "" {
		c.Header("Cache-Control", cacheControl)
	}

	if etagMatches(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(status, "application/json; charset=utf-8", b)
}

func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}

	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == tag || "W/"+candidate == tag {
			return true
		}
	}

	return false
}
