package entities

// TerminalReason причина остановки обхода графа владения.
type TerminalReason string

const (
	TerminalDepthExceeded TerminalReason = "depth_exceeded"
	TerminalCycleDetected TerminalReason = "cycle_detected"
)

// CompanyProfile профиль компании, собранный из внешнего реестра.
// Граф владения всегда конечен и ацикличен: циклы и превышение глубины
// обрезаются терминальными узлами, а не представляются в памяти.
type CompanyProfile struct {
	Identifier       string    `json:"identifier,omitempty"`
	Name             string    `json:"name,omitempty"`
	CEO              string    `json:"ceo,omitempty"`
	Address          string    `json:"address,omitempty"`
	RegistrationDate string    `json:"registration_date,omitempty"`
	Founders         []Founder `json:"founders,omitempty"`
	PDFLink          string    `json:"pdf_link,omitempty"`

	// Иностранная компания: нечисловой идентификатор, в отечественных
	// реестрах не ищется, дальше не раскрывается.
	IsForeign    bool   `json:"is_foreign,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`

	// Терминальный узел вместо исключения: обход остановлен лимитом
	// глубины или обнаруженным циклом.
	Terminal      TerminalReason `json:"terminal,omitempty"`
	VisitedOnPath []string       `json:"visited_on_path,omitempty"`
}

// IsTerminal сообщает, что узел является ограничителем обхода,
// а не настоящим профилем.
func (p *CompanyProfile) IsTerminal() bool {
	return p != nil && p.Terminal != ""
}

// Founder учредитель компании; вложенный профиль заполняется рекурсивным
// обходом, когда учредитель сам является компанией.
type Founder struct {
	Owner     string          `json:"owner"`
	INN       string          `json:"inn,omitempty"`
	IsCompany bool            `json:"is_company"`
	Company   *CompanyProfile `json:"company,omitempty"`
}
