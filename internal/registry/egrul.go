package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/ratelimit"
)

// EgrulClient клиент зеркала ЕГРЮЛ egrul.itsoft.ru. Карточка компании
// доступна напрямую по ИНН, поиска по имени у зеркала нет.
type EgrulClient struct {
	logger  *slog.Logger
	baseURL *url.URL
	client  *http.Client
	limiter ratelimit.Limiter
}

func NewEgrulClient(logger *slog.Logger, baseURL string, timeout, minDelay time.Duration) (*EgrulClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("egrul base url: %w", err)
	}

	return &EgrulClient{
		logger:  logger,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(minDelay),
	}, nil
}

func (c *EgrulClient) Name() string { return "egrul" }

// Search не поддерживается зеркалом: всегда промах без ошибки.
func (c *EgrulClient) Search(_ context.Context, _ string) (string, error) {
	return "", nil
}

// Fetch загружает карточку по ИНН и разбирает блоки руководителя,
// учредителей и адреса.
func (c *EgrulClient) Fetch(ctx context.Context, inn string) (*ProfileFragment, error) {
	pageURL := c.baseURL.JoinPath(inn).String()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Registry: c.Name(), URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: pageURL, Err: err}
	}

	fragment := &ProfileFragment{
		Identifier: inn,
		Name:       strings.TrimSpace(doc.Find("title").First().Text()),
		CEO:        strings.TrimSpace(doc.Find("#chief a").First().Text()),
		Address:    strings.TrimSpace(doc.Find("#СвАдресЮЛ").First().Text()),
		PDFLink:    pageURL,
	}

	doc.Find("#СвУчредит a").Each(func(_ int, a *goquery.Selection) {
		founder := FounderRef{
			Name:       strings.TrimSpace(a.Text()),
			Identifier: identifierFromHref(a.AttrOr("href", "")),
		}
		if founder.Name != "" {
			fragment.Founders = append(fragment.Founders, founder)
		}
	})

	c.logger.DebugContext(ctx, "egrul card parsed",
		"inn", inn, "ceo", fragment.CEO, "founders", len(fragment.Founders))

	return fragment, nil
}
