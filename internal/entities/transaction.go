package entities

import "time"

// TransactionRecord это разобранное MT103 сообщение.
// Все поля извлечения опциональны: отсутствующее поле остается nil,
// разбор никогда не падает из-за пропущенного опционального поля.
type TransactionRecord struct {
	ID        int       `json:"id"`
	Reference *string   `json:"transaction_reference"`
	Type      *string   `json:"transaction_type"`
	Date      *string   `json:"transaction_date"`
	Currency  *string   `json:"transaction_currency"`
	Amount    *string   `json:"transaction_amount"`
	Sender    Sender    `json:"sender"`
	Receiver  Receiver  `json:"receiver"`
	Purpose   *string   `json:"transaction_purpose"`
	Fees      *string   `json:"transaction_fees"`
	CreatedAt time.Time `json:"created_at"`

	// Результаты обогащения; прикрепляются после извлечения,
	// сами извлеченные поля после конструирования не меняются.
	CompanyInfo  *CompanyProfile `json:"company_info,omitempty"`
	ReceiverInfo *CompanyProfile `json:"receiver_info,omitempty"`
}

// Sender поля плательщика из тега :50K:.
type Sender struct {
	Account  *string `json:"sender_account"`
	INN      *string `json:"sender_inn"`
	Name     *string `json:"sender_name"`
	Address  *string `json:"sender_address"`
	BankCode *string `json:"sender_bank_code"`
}

// Receiver поля получателя из тегов :59: и :57D:.
type Receiver struct {
	Account        *string `json:"receiver_account"`
	INN            *string `json:"receiver_inn"`
	KPP            *string `json:"receiver_kpp"`
	Name           *string `json:"receiver_name"`
	BankCode       *string `json:"receiver_bank_code"`
	TransitAccount *string `json:"receiver_transit_account"`
	BankName       *string `json:"receiver_bank_name"`
}
