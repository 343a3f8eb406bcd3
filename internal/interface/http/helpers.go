package httpapi

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP 依序採信反向代理常見的標頭，最後退回 gin 解析的來源位址。
func clientIP(c *gin.Context) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip", "CF-Connecting-Ip"} {
		if v := c.GetHeader(h); v != "" {
			return strings.TrimSpace(strings.Split(v, ",")[0])
		}
	}
	return c.ClientIP()
}

// deviceNameFromUA 從 User-Agent 粗略判斷裝置類型，顯示用途而已。
func deviceNameFromUA(ua string) string {
	l := strings.ToLower(ua)
	switch {
	case l == "":
		return "Dispositivo desconocido"
	case strings.Contains(l, "postman"):
		return "Postman"
	case strings.Contains(l, "ipad") || strings.Contains(l, "tablet"):
		return "Tablet"
	case strings.Contains(l, "mobile") || strings.Contains(l, "android") || strings.Contains(l, "iphone"):
		return "Móvil"
	case strings.Contains(l, "windows"):
		return "PC Windows"
	case strings.Contains(l, "macintosh") || strings.Contains(l, "mac os"):
		return "Mac"
	case strings.Contains(l, "linux"):
		return "PC Linux"
	default:
		return "Dispositivo desconocido"
	}
}

// fallbackDeviceID 在用戶端未提供 deviceId 時，由 UA+IP 推導出穩定的識別。
func fallbackDeviceID(ua, ip string) string {
	sum := md5.Sum([]byte(ua + ip))
	return hex.EncodeToString(sum[:])[:16]
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseBoolDefault(s string, def bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
