package swift

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.openly.dev/pointy"

	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/normalize"
)

// ErrEmptyMessage сообщение пустое после нормализации; единственная
// ошибка, которую извлечение возвращает наружу.
var ErrEmptyMessage = errors.New("swift message is empty")

var (
	valueDateRe   = regexp.MustCompile(`^(\d{6})([A-Z]{3})([\d,]+)`)
	accountLineRe = regexp.MustCompile(`^/(\d+)`)
	innLineRe     = regexp.MustCompile(`^INN(\d+)$`)
	innKppLineRe  = regexp.MustCompile(`^INN(\d+)\.KPP(\d+)\s+(.+)$`)
	dottedCodeRe  = regexp.MustCompile(`^//(.+)$`)
)

// Extractor разбирает MT103 сообщение в структурированную запись.
// Пропущенное или кривое опциональное поле дает nil и запись в лог,
// разбор продолжается.
type Extractor struct {
	logger     *slog.Logger
	normalizer *normalize.Normalizer
}

func NewExtractor(logger *slog.Logger, normalizer *normalize.Normalizer) *Extractor {
	return &Extractor{logger: logger, normalizer: normalizer}
}

// Extract разбирает сырой текст сообщения. Ошибка возвращается только
// для пустого сообщения, все остальные проблемы локальны для поля.
func (e *Extractor) Extract(raw string) (*entities.TransactionRecord, error) {
	message := NormalizeMessage(raw)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	blocks := newBlockIndex(Tokenize(message))

	record := &entities.TransactionRecord{
		Reference: firstLineOf(blocks, "20"),
		Type:      firstLineOf(blocks, "23B"),
		Fees:      firstLineOf(blocks, "71A"),
	}

	e.extractValueDate(blocks, record)
	e.extractSender(blocks, record)
	// Код банка отправителя независим от блока :50K:, :52A: приоритетнее.
	record.Sender.BankCode = firstLineOf(blocks, "52A", "53B")
	e.extractReceiver(blocks, record)
	e.extractReceiverBank(blocks, record)
	e.extractPurpose(blocks, record)

	return record, nil
}

// extractValueDate разбирает тег :32A: — дата YYMMDD, валюта, сумма.
// Кривая дата обнуляет всю тройку, а не только дату.
func (e *Extractor) extractValueDate(blocks blockIndex, record *entities.TransactionRecord) {
	block, ok := blocks.first("32A")
	if !ok {
		return
	}

	m := valueDateRe.FindStringSubmatch(block.Lines[0])
	if m == nil {
		e.logger.Debug("value date field did not match", "content", block.Lines[0])
		return
	}

	parsed, err := time.Parse("060102", m[1])
	if err != nil {
		e.logger.Warn("malformed value date, dropping date/currency/amount", "raw", m[1], "error", err)
		return
	}

	// Двузначный год это всегда 20YY; стандартный разбор уводит 69-99 в
	// прошлый век.
	if parsed.Year() < 2000 {
		parsed = parsed.AddDate(100, 0, 0)
	}

	record.Date = pointy.String(parsed.Format("2006-01-02"))
	record.Currency = pointy.String(m[2])
	// Запятая как десятичный разделитель заменяется точкой.
	record.Amount = pointy.String(strings.ReplaceAll(m[3], ",", "."))
}

// extractSender разбирает тег :50K: — счет, опциональный ИНН, имя и
// многострочный адрес до следующего тега.
func (e *Extractor) extractSender(blocks blockIndex, record *entities.TransactionRecord) {
	block, ok := blocks.first("50K")
	if !ok {
		e.logger.Debug("sender block missing")
		return
	}

	m := accountLineRe.FindStringSubmatch(block.Lines[0])
	if m == nil {
		e.logger.Debug("sender account did not match", "content", block.Lines[0])
		return
	}
	record.Sender.Account = pointy.String(m[1])

	rest := block.Lines[1:]
	if len(rest) > 0 {
		if innMatch := innLineRe.FindStringSubmatch(rest[0]); innMatch != nil {
			record.Sender.INN = pointy.String(innMatch[1])
			rest = rest[1:]
		}
	}

	if len(rest) > 0 {
		name := e.normalizer.CleanCompanyName(strings.TrimSpace(rest[0]))
		record.Sender.Name = pointy.String(name)
		rest = rest[1:]
	}

	if len(rest) > 0 {
		address := strings.Join(trimAll(rest), ", ")
		record.Sender.Address = pointy.String(e.normalizer.Transliterate(address))
	}
}

// extractReceiver разбирает тег :59: — счет, опциональная пара ИНН/КПП
// и имя получателя.
func (e *Extractor) extractReceiver(blocks blockIndex, record *entities.TransactionRecord) {
	block, ok := blocks.first("59")
	if !ok {
		e.logger.Debug("receiver block missing")
		return
	}

	if m := accountLineRe.FindStringSubmatch(block.Lines[0]); m != nil {
		record.Receiver.Account = pointy.String(m[1])
	}

	if len(block.Lines) < 2 {
		return
	}

	nameLine := strings.TrimSpace(block.Lines[1])
	if m := innKppLineRe.FindStringSubmatch(nameLine); m != nil {
		record.Receiver.INN = pointy.String(m[1])
		record.Receiver.KPP = pointy.String(m[2])
		nameLine = m[3]
	}
	record.Receiver.Name = pointy.String(e.normalizer.CleanCompanyName(nameLine))
}

// extractReceiverBank пробует варианты тега банка получателя в порядке
// приоритета: :57D: несет код с транзитным счетом через точку, :57A:
// только код. За кодом может идти строка с названием банка.
func (e *Extractor) extractReceiverBank(blocks blockIndex, record *entities.TransactionRecord) {
	block, ok := blocks.first("57D", "57A")
	if !ok {
		return
	}

	first := strings.TrimSpace(block.Lines[0])
	if m := dottedCodeRe.FindStringSubmatch(first); m != nil {
		code, transit, found := strings.Cut(m[1], ".")
		record.Receiver.BankCode = pointy.String(code)
		if found {
			record.Receiver.TransitAccount = pointy.String(transit)
		}
	} else if first != "" {
		record.Receiver.BankCode = pointy.String(first)
	}

	if len(block.Lines) > 1 {
		bankName := e.normalizer.Transliterate(strings.TrimSpace(block.Lines[1]))
		record.Receiver.BankName = pointy.String(bankName)
	}
}

// extractPurpose забирает свободный текст назначения платежа из :70:.
// Текст заканчивается на ближайшем маркере тега любого вида, не только
// на теге комиссий: токенизатор режет сообщение по всем маркерам, и
// содержимое промежуточных тегов вроде :72: в назначение не попадает.
func (e *Extractor) extractPurpose(blocks blockIndex, record *entities.TransactionRecord) {
	block, ok := blocks.first("70")
	if !ok {
		return
	}

	purpose := strings.TrimSpace(strings.Join(block.Lines, "\n"))
	if purpose == "" {
		return
	}
	record.Purpose = pointy.String(e.normalizer.Transliterate(purpose))
}

// firstLineOf возвращает первую строку первого подходящего блока.
func firstLineOf(blocks blockIndex, tags ...string) *string {
	block, ok := blocks.first(tags...)
	if !ok {
		return nil
	}
	line := strings.TrimSpace(block.Lines[0])
	if line == "" {
		return nil
	}
	return pointy.String(line)
}

func trimAll(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}
