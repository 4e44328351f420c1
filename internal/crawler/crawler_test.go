package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/normalize"
	"github.com/sand/swift-screening-app/backend/internal/registry"
)

// fakeRegistry детерминированный реестр в памяти со счетчиком запросов.
type fakeRegistry struct {
	mu      sync.Mutex
	pages   map[string]*registry.ProfileFragment
	fail    map[string]bool
	fetches map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		pages:   make(map[string]*registry.ProfileFragment),
		fail:    make(map[string]bool),
		fetches: make(map[string]int),
	}
}

func (f *fakeRegistry) Name() string { return "fake" }

func (f *fakeRegistry) Search(_ context.Context, _ string) (string, error) { return "", nil }

func (f *fakeRegistry) Fetch(_ context.Context, id string) (*registry.ProfileFragment, error) {
	f.mu.Lock()
	f.fetches[id]++
	f.mu.Unlock()

	if f.fail[id] {
		return nil, &registry.FetchError{Registry: "fake", URL: id, StatusCode: 502}
	}
	page, ok := f.pages[id]
	if !ok {
		return nil, &registry.FetchError{Registry: "fake", URL: id, StatusCode: 404}
	}
	return page, nil
}

func (f *fakeRegistry) fetchCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

func (f *fakeRegistry) totalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.fetches {
		total += n
	}
	return total
}

func (f *fakeRegistry) addCompany(id, name string, founders ...registry.FounderRef) {
	f.pages[id] = &registry.ProfileFragment{
		Identifier: id,
		Name:       name,
		CEO:        "IVANOV I.I.",
		Founders:   founders,
	}
}

func newTestCrawler(reg registry.Client, maxDepth int) *Crawler {
	return New(slog.Default(), reg, normalize.NewNormalizer(normalize.DefaultTables()), maxDepth)
}

func companyRef(id string, n int) registry.FounderRef {
	return registry.FounderRef{Name: fmt.Sprintf("OOO FIRMA%d", n), Identifier: id}
}

func TestExpandEmptyIdentifier(t *testing.T) {
	c := newTestCrawler(newFakeRegistry(), 5)
	require.Nil(t, c.Expand(context.Background(), "", 0, nil))
}

func TestExpandSimpleCompany(t *testing.T) {
	reg := newFakeRegistry()
	reg.pages["100"] = &registry.ProfileFragment{
		Identifier: "100",
		Name:       `ООО "РОМАШКА"`,
		CEO:        "Иванов Иван",
		Address:    "Москва",
		Founders: []registry.FounderRef{
			{Name: "Петров Петр"},
			{Name: "ООО ПРОМРЕСУРС", Identifier: "200"},
		},
	}
	reg.addCompany("200", "OOO PROMRESURS")

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "100", 0, map[string]struct{}{})
	require.NotNil(t, profile)

	require.Equal(t, "ROMASHKA", profile.Name)
	require.Equal(t, "Ivanov Ivan", profile.CEO)
	require.Equal(t, "Moskva", profile.Address)
	require.Len(t, profile.Founders, 2)

	// Физлицо: транслитерировано, не компания, не раскрывается.
	require.Equal(t, "Petrov Petr", profile.Founders[0].Owner)
	require.False(t, profile.Founders[0].IsCompany)
	require.Nil(t, profile.Founders[0].Company)

	require.True(t, profile.Founders[1].IsCompany)
	require.Equal(t, "200", profile.Founders[1].INN)
	require.NotNil(t, profile.Founders[1].Company)
	require.Equal(t, "PROMRESURS", profile.Founders[1].Company.Name)
}

func TestExpandDepthLimitZeroFetches(t *testing.T) {
	reg := newFakeRegistry()
	reg.addCompany("1", "OOO ODIN")

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "1", 5,
		map[string]struct{}{"9": {}, "8": {}})

	require.True(t, profile.IsTerminal())
	require.Equal(t, entities.TerminalDepthExceeded, profile.Terminal)
	require.Equal(t, "1", profile.Identifier)
	require.Equal(t, []string{"8", "9"}, profile.VisitedOnPath)
	require.Zero(t, reg.totalFetches())
}

func TestExpandChainCutAtMaxDepth(t *testing.T) {
	reg := newFakeRegistry()
	// Цепочка 1 -> 2 -> ... -> 6, у каждого один учредитель-компания.
	for i := 1; i <= 6; i++ {
		if i < 6 {
			reg.addCompany(fmt.Sprint(i), fmt.Sprintf("OOO ZVENO%d", i), companyRef(fmt.Sprint(i+1), i+1))
		} else {
			reg.addCompany("6", "OOO ZVENO6")
		}
	}

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "1", 0, map[string]struct{}{})

	node := profile
	for i := 1; i <= 5; i++ {
		require.NotNil(t, node, "depth %d", i)
		require.False(t, node.IsTerminal())
		require.Equal(t, fmt.Sprint(i), node.Identifier)
		if i < 5 {
			require.Len(t, node.Founders, 1)
			node = node.Founders[0].Company
		}
	}

	// Шестое звено лежит на глубине лимита: страж вместо профиля,
	// его страница не запрашивалась.
	sentinel := node.Founders[0].Company
	require.True(t, sentinel.IsTerminal())
	require.Equal(t, entities.TerminalDepthExceeded, sentinel.Terminal)
	require.Equal(t, "6", sentinel.Identifier)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, sentinel.VisitedOnPath)
	require.Zero(t, reg.fetchCount("6"))
}

func TestExpandCycleDetected(t *testing.T) {
	reg := newFakeRegistry()
	reg.addCompany("10", "OOO ALFA", companyRef("11", 11))
	reg.addCompany("11", "OOO BETA", companyRef("10", 10))

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "10", 0, map[string]struct{}{})

	beta := profile.Founders[0].Company
	require.Equal(t, "11", beta.Identifier)

	back := beta.Founders[0].Company
	require.True(t, back.IsTerminal())
	require.Equal(t, entities.TerminalCycleDetected, back.Terminal)
	require.Equal(t, "10", back.Identifier)
	require.Equal(t, []string{"10", "11"}, back.VisitedOnPath)

	// Повторного запроса карточки 10 не было.
	require.Equal(t, 1, reg.fetchCount("10"))
}

func TestExpandSiblingBranchesMayRevisit(t *testing.T) {
	reg := newFakeRegistry()
	// Ромб: 20 владеет 21 и 22, обе владеют 23. Набор посещенных копируется
	// на ветку, поэтому 23 раскрывается в обеих ветках независимо.
	reg.addCompany("20", "OOO KOREN", companyRef("21", 21), companyRef("22", 22))
	reg.addCompany("21", "OOO LEVAYA", companyRef("23", 23))
	reg.addCompany("22", "OOO PRAVAYA", companyRef("23", 23))
	reg.addCompany("23", "OOO OBSHCHAYA")

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "20", 0, map[string]struct{}{})

	require.Len(t, profile.Founders, 2)
	for i := range profile.Founders {
		branch := profile.Founders[i].Company
		require.NotNil(t, branch)
		require.Len(t, branch.Founders, 1)
		leaf := branch.Founders[0].Company
		require.NotNil(t, leaf)
		require.False(t, leaf.IsTerminal())
		require.Equal(t, "OBSHCHAYA", leaf.Name)
	}
	require.Equal(t, 2, reg.fetchCount("23"))
}

func TestExpandFounderOrderIsSourceOrder(t *testing.T) {
	reg := newFakeRegistry()
	refs := make([]registry.FounderRef, 0, 8)
	for i := 0; i < 8; i++ {
		id := fmt.Sprint(40 + i)
		refs = append(refs, companyRef(id, 40+i))
		reg.addCompany(id, fmt.Sprintf("OOO DOLYA%d", 40+i))
	}
	reg.addCompany("39", "OOO DERZHATEL", refs...)

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "39", 0, map[string]struct{}{})

	require.Len(t, profile.Founders, 8)
	for i, founder := range profile.Founders {
		require.Equal(t, fmt.Sprint(40+i), founder.INN)
		require.Equal(t, fmt.Sprintf("DOLYA%d", 40+i), founder.Company.Name)
	}
}

func TestExpandEmptyCardGivesNilNode(t *testing.T) {
	reg := newFakeRegistry()
	// Карточка открылась, но ни имени, ни учредителей на ней нет.
	reg.pages["77"] = &registry.ProfileFragment{Identifier: "77", PDFLink: "http://reg/77"}

	require.Nil(t, newTestCrawler(reg, 5).Expand(context.Background(), "77", 0, map[string]struct{}{}))
	require.Equal(t, 1, reg.fetchCount("77"))
}

func TestExpandEmptyCardFounderStaysNil(t *testing.T) {
	reg := newFakeRegistry()
	reg.addCompany("60", "OOO RODITEL", companyRef("61", 61))
	reg.pages["61"] = &registry.ProfileFragment{Identifier: "61"}

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "60", 0, map[string]struct{}{})

	require.NotNil(t, profile)
	require.Len(t, profile.Founders, 1)
	require.Nil(t, profile.Founders[0].Company)
}

func TestExpandFetchFailureGivesNilNode(t *testing.T) {
	reg := newFakeRegistry()
	reg.addCompany("30", "OOO RODITEL", companyRef("31", 31), companyRef("32", 32))
	reg.addCompany("32", "OOO ZHIVAYA")
	reg.fail["31"] = true

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "30", 0, map[string]struct{}{})

	require.NotNil(t, profile)
	require.Nil(t, profile.Founders[0].Company)
	require.NotNil(t, profile.Founders[1].Company)
}

func TestExpandForeignIdentifier(t *testing.T) {
	reg := newFakeRegistry()

	profile := newTestCrawler(reg, 5).Expand(context.Background(), "ACME LTD", 0, map[string]struct{}{})

	require.True(t, profile.IsForeign)
	require.Equal(t, "ACME LTD", profile.Identifier)
	require.Equal(t, "ACME", profile.Name)
	require.Equal(t, "United Kingdom", profile.Jurisdiction)
	require.Empty(t, profile.Founders)
	require.Zero(t, reg.totalFetches())
}

func TestExpandCancelledContext(t *testing.T) {
	reg := newFakeRegistry()
	reg.addCompany("50", "OOO PYAT")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Nil(t, newTestCrawler(reg, 5).Expand(ctx, "50", 0, map[string]struct{}{}))
	require.Zero(t, reg.totalFetches())
}
