package registry

import (
	"strings"
	"time"

	"go.uber.org/ratelimit"
)

// Реестры банят ботов, представляемся браузером.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// newLimiter один запрос за minDelay; нулевая задержка снимает лимит.
func newLimiter(minDelay time.Duration) ratelimit.Limiter {
	if minDelay <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(1, ratelimit.Per(minDelay))
}

// identifierFromHref вытаскивает числовой идентификатор компании из
// ссылки на карточку: последний сегмент пути, если он целиком из цифр.
func identifierFromHref(href string) string {
	href = strings.TrimRight(href, "/")
	segment := href
	if idx := strings.LastIndex(href, "/"); idx >= 0 {
		segment = href[idx+1:]
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if segment == "" {
		return ""
	}
	return segment
}
