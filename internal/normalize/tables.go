package normalize

// Abbreviation пара "полная юридическая форма" -> каноническое сокращение.
type Abbreviation struct {
	Full  string
	Short string
}

// Tables неизменяемая конфигурация нормализатора. Строится один раз на
// старте и передается в Normalizer по ссылке, на лету не меняется.
type Tables struct {
	// Полные формы, заменяемые сокращениями. Применяются от самой длинной
	// фразы к самой короткой, чтобы "Limited Liability Company" не
	// съедалось заменой для "Limited".
	Abbreviations []Abbreviation

	// Токены юридических форм (полные и сокращенные), по которым название
	// классифицируется как компания и которые вычищаются из имени.
	Labels []string

	// Суффикс юридической формы -> юрисдикция иностранной компании.
	Jurisdictions map[string]string

	// Кириллица -> латиница, обратная русская таблица транслитерации.
	Translit map[rune]string
}

// DefaultTables возвращает таблицы для русских (кириллица и латиница),
// узбекских, английских и немецких юридических форм.
func DefaultTables() *Tables {
	return &Tables{
		Abbreviations: []Abbreviation{
			{"Общество с ограниченной ответственностью", "ООО"},
			{"Публичное акционерное общество", "ПАО"},
			{"Открытое акционерное общество", "ОАО"},
			{"Закрытое акционерное общество", "ЗАО"},
			{"Акционерное общество", "АО"},
			{"Индивидуальный предприниматель", "ИП"},
			{"Public Joint Stock Company", "PJSC"},
			{"Limited Liability Company", "LLC"},
			{"Joint Stock Company", "JSC"},
			{"Mas'uliyati cheklangan jamiyat", "MChJ"},
			{"Aksiyadorlik jamiyati", "AJ"},
			{"Gesellschaft mit beschränkter Haftung", "GmbH"},
			{"Aktiengesellschaft", "AG"},
			{"Incorporated", "Inc"},
			{"Corporation", "Corp"},
			{"Limited", "Ltd"},
		},
		Labels: []string{
			"OOO", "LLC", "MCHJ", "MChJ", "Inc", "Corp", "Ltd", "GmbH", "AG",
			"PJSC", "JSC", "AJ",
			"ООО", "АО", "ОАО", "ЗАО", "ПАО", "ИП",
		},
		Jurisdictions: map[string]string{
			"GmbH": "Germany",
			"AG":   "Germany",
			"Ltd":  "United Kingdom",
			"PLC":  "United Kingdom",
			"LLC":  "United States",
			"Inc":  "United States",
			"Corp": "United States",
			"MCHJ": "Uzbekistan",
			"MChJ": "Uzbekistan",
			"AJ":   "Uzbekistan",
		},
		Translit: map[rune]string{
			'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e",
			'ё': "e", 'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k",
			'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r",
			'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
			'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
			'э': "e", 'ю': "yu", 'я': "ya",
		},
	}
}
