package swift

import (
	"regexp"
	"strings"
)

// Маркер тега MT103: двоеточие, две цифры, необязательная буква, двоеточие.
var tagLineRe = regexp.MustCompile(`^:(\d{2}[A-Z]?):(.*)$`)

// Block один помеченный тегом участок сообщения: содержимое строки тега
// плюс все строки до следующего маркера тега или конца текста.
type Block struct {
	Tag   string
	Lines []string
}

// NormalizeMessage приводит сырой текст к виду, пригодному для разбора:
// убирает CR, схлопывает пустые строки, обрезает крайние пробелы.
func NormalizeMessage(raw string) string {
	raw = strings.ReplaceAll(raw, "\r", "")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Tokenize разрезает нормализованное сообщение на блоки по маркерам тегов.
// Текст до первого тега (служебные заголовки SWIFT) отбрасывается.
// Порядок блоков сохраняется.
func Tokenize(message string) []Block {
	var blocks []Block
	var current *Block

	for _, line := range strings.Split(message, "\n") {
		if m := tagLineRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Tag: m[1], Lines: []string{m[2]}})
			current = &blocks[len(blocks)-1]
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	return blocks
}

// blockIndex доступ к блокам по тегу с сохранением семантики
// "первый подходящий вариант выигрывает".
type blockIndex struct {
	blocks []Block
}

func newBlockIndex(blocks []Block) blockIndex {
	return blockIndex{blocks: blocks}
}

// first возвращает первый блок, чей тег совпадает с одним из вариантов.
// Варианты проверяются в порядке приоритета: сначала все блоки сверяются
// с первым вариантом, затем со вторым и так далее.
func (bi blockIndex) first(tags ...string) (Block, bool) {
	for _, tag := range tags {
		for _, b := range bi.blocks {
			if b.Tag == tag {
				return b, true
			}
		}
	}
	return Block{}, false
}
