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

const orginfoSearchPath = "/en/search/organizations/"

// OrginfoClient клиент узбекского реестра orginfo.uz. Реестр отдает только
// HTML, поэтому разбираем страницы goquery. Поиск работает по имени,
// карточка компании запрашивается по ссылке из результатов поиска.
type OrginfoClient struct {
	logger  *slog.Logger
	baseURL *url.URL
	client  *http.Client
	limiter ratelimit.Limiter
}

func NewOrginfoClient(logger *slog.Logger, baseURL string, timeout, minDelay time.Duration) (*OrginfoClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("orginfo base url: %w", err)
	}

	return &OrginfoClient{
		logger:  logger,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(minDelay),
	}, nil
}

func (c *OrginfoClient) Name() string { return "orginfo" }

// Search ищет компанию по имени и возвращает абсолютную ссылку на первую
// карточку, чей текст содержит искомое имя без учета регистра.
// Пустая строка без ошибки — совпадений нет.
func (c *OrginfoClient) Search(ctx context.Context, name string) (string, error) {
	searchURL := *c.baseURL
	searchURL.Path = orginfoSearchPath
	searchURL.RawQuery = url.Values{"q": {name}, "sort": {"active"}}.Encode()

	doc, err := c.get(ctx, searchURL.String())
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	var link string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(a.Text()), needle) {
			return true
		}
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		link = c.resolve(href)
		return false
	})

	if link == "" {
		c.logger.DebugContext(ctx, "orginfo search miss", "query", name)
	}
	return link, nil
}

// Fetch загружает карточку компании и разбирает секции
// "Management information" и "Founders".
func (c *OrginfoClient) Fetch(ctx context.Context, idOrURL string) (*ProfileFragment, error) {
	pageURL := c.resolve(idOrURL)

	doc, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	fragment := &ProfileFragment{
		Identifier: idOrURL,
		Name:       strings.TrimSpace(doc.Find("h1").First().Text()),
		PDFLink:    c.resolve(strings.TrimSuffix(pageURL, "/") + "/pdf"),
	}

	doc.Find("h5").Each(func(_ int, h *goquery.Selection) {
		section := strings.TrimSpace(h.Text())
		switch {
		case strings.Contains(section, "Management information"):
			fragment.CEO = strings.TrimSpace(h.Parent().Find("a").First().Text())
		case strings.Contains(section, "Founders"):
			h.Parent().Find("a").Each(func(_ int, a *goquery.Selection) {
				founder := FounderRef{
					Name:       strings.TrimSpace(a.Text()),
					Identifier: identifierFromHref(a.AttrOr("href", "")),
				}
				if founder.Name != "" {
					fragment.Founders = append(fragment.Founders, founder)
				}
			})
		case strings.Contains(section, "Contact information"):
			fragment.Address = strings.TrimSpace(h.Parent().Find("p").First().Text())
		}
	})

	return fragment, nil
}

// get выдерживает минимальный интервал между запросами и разбирает ответ.
func (c *OrginfoClient) get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Registry: c.Name(), URL: rawURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Registry: c.Name(), URL: rawURL, Err: err}
	}
	return doc, nil
}

// resolve превращает относительную ссылку со страницы в абсолютную.
func (c *OrginfoClient) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.baseURL.ResolveReference(ref).String()
}
