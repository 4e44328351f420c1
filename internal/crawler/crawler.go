package crawler

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/normalize"
	"github.com/sand/swift-screening-app/backend/internal/registry"
)

// Одновременно раскрываемых учредителей одной компании.
const maxSiblingFetches = 4

// Crawler рекурсивно строит граф владения компании по внешнему реестру.
// Глубина ограничена, циклы обрезаются терминальными узлами, поэтому
// результат всегда конечное дерево.
type Crawler struct {
	logger     *slog.Logger
	registry   registry.Client
	normalizer *normalize.Normalizer
	maxDepth   int
}

func New(logger *slog.Logger, client registry.Client, normalizer *normalize.Normalizer, maxDepth int) *Crawler {
	return &Crawler{
		logger:     logger,
		registry:   client,
		normalizer: normalizer,
		maxDepth:   maxDepth,
	}
}

// Expand раскрывает компанию по идентификатору (ИНН или ссылка на карточку)
// и рекурсивно ее учредителей-компании. Ошибок не возвращает: обход всегда
// лучших усилий, недоступный узел становится nil, лимит глубины и цикл —
// терминальным узлом. Набор visited принадлежит одному пути от корня и
// копируется на каждую ветку, повторное посещение в соседних ветках
// разрешено.
func (c *Crawler) Expand(ctx context.Context, identifier string, depth int, visited map[string]struct{}) *entities.CompanyProfile {
	if identifier == "" || ctx.Err() != nil {
		return nil
	}

	// Иностранный идентификатор в отечественных реестрах не ищется и не
	// раскрывается ни при какой глубине.
	if !resolvable(identifier) {
		return &entities.CompanyProfile{
			Identifier:   identifier,
			Name:         c.normalizer.CleanCompanyName(identifier),
			IsForeign:    true,
			Jurisdiction: c.normalizer.Jurisdiction(identifier),
		}
	}

	if depth >= c.maxDepth {
		return &entities.CompanyProfile{
			Identifier:    identifier,
			Terminal:      entities.TerminalDepthExceeded,
			VisitedOnPath: sortedKeys(visited),
		}
	}

	if _, seen := visited[identifier]; seen {
		return &entities.CompanyProfile{
			Identifier:    identifier,
			Terminal:      entities.TerminalCycleDetected,
			VisitedOnPath: sortedKeys(visited),
		}
	}

	fragment, err := c.registry.Fetch(ctx, identifier)
	if err != nil {
		c.logger.WarnContext(ctx, "company fetch failed, node dropped",
			"registry", c.registry.Name(), "identifier", identifier, "error", err)
		return nil
	}

	profile := &entities.CompanyProfile{
		Identifier:       identifier,
		Name:             c.normalizer.CleanCompanyName(fragment.Name),
		CEO:              c.normalizer.Transliterate(fragment.CEO),
		Address:          c.normalizer.Transliterate(fragment.Address),
		RegistrationDate: fragment.RegistrationDate,
		PDFLink:          fragment.PDFLink,
	}

	// Карточка без имени и учредителей бесполезна, пустой узел не храним.
	if profile.Name == "" && len(fragment.Founders) == 0 {
		c.logger.DebugContext(ctx, "company card is empty, node dropped",
			"registry", c.registry.Name(), "identifier", identifier)
		return nil
	}

	if len(fragment.Founders) == 0 {
		return profile
	}

	path := cloneSet(visited)
	path[identifier] = struct{}{}

	// Учредители раскрываются параллельно, но результат пишется по индексу:
	// порядок в профиле всегда порядок со страницы реестра.
	profile.Founders = make([]entities.Founder, len(fragment.Founders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSiblingFetches)

	for i, ref := range fragment.Founders {
		founder := entities.Founder{
			Owner:     c.normalizer.Transliterate(ref.Name),
			INN:       ref.Identifier,
			IsCompany: c.normalizer.ClassifyEntity(ref.Name),
		}
		profile.Founders[i] = founder

		if !founder.IsCompany || ref.Identifier == "" {
			continue
		}

		i, id := i, ref.Identifier
		g.Go(func() error {
			profile.Founders[i].Company = c.Expand(gctx, id, depth+1, cloneSet(path))
			return nil
		})
	}
	_ = g.Wait()

	return profile
}

// resolvable истинно для идентификаторов, по которым реестр может отдать
// карточку: числовой ИНН либо ссылка из результатов поиска.
func resolvable(identifier string) bool {
	if strings.Contains(identifier, "/") {
		return true
	}
	for _, r := range identifier {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src)+1)
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
