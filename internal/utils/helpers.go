// internal/utils/helpers.go
package utils

import (
	"fmt"
	"strings"
)

// TruncateURL 로그용 URL 축약 (쿼리가 긴 경우 앞부분만)
func TruncateURL(url string, maxLen int) string {
	if len(url) > maxLen {
		return fmt.Sprintf("%s... (%d자)", url[:maxLen], len(url))
	}
	return url
}

// PreviewBody 응답 본문 미리보기 (처음 maxLen 바이트, 줄바꿈 제거)
func PreviewBody(body []byte, maxLen int) string {
	preview := strings.ReplaceAll(string(body), "\n", " ")
	if len(preview) > maxLen {
		return preview[:maxLen] + "..."
	}
	return preview
}
