package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalizer нормализует имена контрагентов: сокращает юридические формы,
// вычищает метки форм собственности и транслитерирует кириллицу.
type Normalizer struct {
	tables *Tables

	// Сортированная копия таблицы сокращений: самая длинная фраза первой,
	// порядок применения детерминирован.
	abbreviations []Abbreviation

	labelSet map[string]struct{}
}

// NewNormalizer создает нормализатор поверх неизменяемых таблиц.
func NewNormalizer(tables *Tables) *Normalizer {
	abbrs := make([]Abbreviation, len(tables.Abbreviations))
	copy(abbrs, tables.Abbreviations)
	sort.SliceStable(abbrs, func(i, j int) bool {
		return len(abbrs[i].Full) > len(abbrs[j].Full)
	})

	labels := make(map[string]struct{}, len(tables.Labels))
	for _, l := range tables.Labels {
		labels[foldKey(l)] = struct{}{}
	}

	return &Normalizer{
		tables:        tables,
		abbreviations: abbrs,
		labelSet:      labels,
	}
}

// ClassifyEntity возвращает true, если имя содержит токен юридической формы
// (полной или сокращенной, без учета регистра, по границам слов).
func (n *Normalizer) ClassifyEntity(name string) bool {
	for _, token := range tokenize(name) {
		if _, ok := n.labelSet[foldKey(token)]; ok {
			return true
		}
	}
	// Полные формы состоят из нескольких слов и токенами не ловятся.
	for _, abbr := range n.abbreviations {
		if containsFold(name, abbr.Full) {
			return true
		}
	}
	return false
}

// containsFold проверяет вхождение фразы без учета регистра,
// по границам слов.
func containsFold(s, phrase string) bool {
	_, _, ok := foldIndex(s, phrase, 0)
	return ok
}

// Abbreviate заменяет каждую полную юридическую форму каноническим
// сокращением. Повторное применение ничего не меняет: результат замены
// уже является сокращением из таблицы.
func (n *Normalizer) Abbreviate(name string) string {
	for _, abbr := range n.abbreviations {
		name = replaceFold(name, abbr.Full, abbr.Short)
	}
	return name
}

// StripLabels убирает оставшиеся одиночные токены юридических форм,
// кавычки и лишние пробелы.
func (n *Normalizer) StripLabels(name string) string {
	var kept []string
	for _, token := range tokenize(name) {
		if _, ok := n.labelSet[foldKey(token)]; ok {
			continue
		}
		kept = append(kept, token)
	}
	out := strings.Join(kept, " ")
	out = strings.NewReplacer(`"`, "", "'", "", "«", "", "»", "", "/", "").Replace(out)
	return strings.Join(strings.Fields(out), " ")
}

// CleanCompanyName полный конвейер для имени компании:
// сокращение форм, чистка меток, транслитерация.
func (n *Normalizer) CleanCompanyName(name string) string {
	return n.Transliterate(n.StripLabels(n.Abbreviate(name)))
}

// Transliterate романизирует текст по обратной русской таблице, если в нем
// есть кириллица; латинский текст возвращается без изменений, поэтому
// операция идемпотентна. Неизвестные символы проходят как есть, ошибок
// наружу не бывает.
func (n *Normalizer) Transliterate(text string) string {
	if !containsCyrillic(text) {
		return text
	}

	runes := []rune(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		mapped, ok := n.tables.Translit[unicode.ToLower(r)]
		if !ok {
			b.WriteRune(r)
			continue
		}
		switch {
		case !unicode.IsUpper(r) || mapped == "":
			b.WriteString(mapped)
		case upperContext(runes, i):
			// Слово капсом целиком: РОМАШКА -> ROMASHKA, не ROMAShKA.
			b.WriteString(strings.ToUpper(mapped))
		default:
			b.WriteString(strings.ToUpper(mapped[:1]) + mapped[1:])
		}
	}
	return b.String()
}

// Jurisdiction выводит юрисдикцию иностранной компании по суффиксу
// юридической формы в идентификаторе или имени. Неизвестный суффикс
// дает "Unknown".
func (n *Normalizer) Jurisdiction(identifierOrName string) string {
	for _, token := range tokenize(identifierOrName) {
		for suffix, country := range n.tables.Jurisdictions {
			if strings.EqualFold(token, suffix) {
				return country
			}
		}
	}
	return "Unknown"
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func foldKey(s string) string {
	return strings.ToLower(s)
}

func containsCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// replaceFold заменяет все вхождения phrase на repl без учета регистра.
// Совпадение засчитывается только по границам слов, чтобы "Limited" не
// съедало хвост "Unlimited".
func replaceFold(s, phrase, repl string) string {
	if phrase == "" {
		return s
	}

	var b strings.Builder
	from := 0
	for {
		start, end, ok := foldIndex(s, phrase, from)
		if !ok {
			break
		}
		b.WriteString(s[from:start])
		b.WriteString(repl)
		from = end
	}
	b.WriteString(s[from:])
	return b.String()
}

// foldIndex ищет первое вхождение phrase в s начиная с байта from, без
// учета регистра и только по границам слов. Сравнение идет по рунам:
// смена регистра может менять длину строки в байтах ('İ' в нижнем
// регистре длиннее), поэтому индексы по копии strings.ToLower ненадежны.
func foldIndex(s, phrase string, from int) (start, end int, ok bool) {
	for i := from; i < len(s); {
		if matchEnd, matched := matchFoldAt(s, phrase, i); matched &&
			boundaryAt(s, i) && boundaryAfter(s, matchEnd) {
			return i, matchEnd, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

// matchFoldAt сверяет phrase с s по рунам начиная с байта start и
// возвращает байт сразу за совпадением.
func matchFoldAt(s, phrase string, start int) (int, bool) {
	i := start
	for _, pr := range phrase {
		r, size := utf8.DecodeRuneInString(s[i:])
		if size == 0 || unicode.ToLower(r) != unicode.ToLower(pr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// upperContext истинно, когда заглавная буква стоит внутри слова капсом:
// следующая буква тоже заглавная, либо буква последняя, а предыдущая
// заглавная.
func upperContext(runes []rune, i int) bool {
	if i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
		return unicode.IsUpper(runes[i+1])
	}
	return i > 0 && unicode.IsUpper(runes[i-1])
}

func boundaryAt(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return !unicode.IsLetter(r)
}

func boundaryAfter(s string, idx int) bool {
	if idx >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return !unicode.IsLetter(r)
}
