package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"

	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/pkg/database"
)

// MessagesRepository stores processed SWIFT messages.
type MessagesRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

func NewMessagesRepository(logger *slog.Logger, pg *database.Postgres) *MessagesRepository {
	return &MessagesRepository{
		logger:     logger,
		db:         pg.DBGetter,
		transactor: pg.Transactor,
	}
}

const messageColumns = `transaction_reference, transaction_type, transaction_date,
	transaction_currency, transaction_amount,
	sender_account, sender_inn, sender_name, sender_address, sender_bank_code,
	receiver_account, receiver_inn, receiver_kpp, receiver_name,
	receiver_bank_code, receiver_transit_account, receiver_bank_name,
	transaction_purpose, transaction_fees, company_info, receiver_info`

const insertMessageQuery = `INSERT INTO swift_messages (` + messageColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (transaction_reference) DO NOTHING`

// Exists reports whether a message with this reference is already stored.
func (r *MessagesRepository) Exists(ctx context.Context, reference string) (bool, error) {
	var exists bool

	err := r.db(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM swift_messages WHERE transaction_reference = $1)",
		reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if message exists: %w", err)
	}

	return exists, nil
}

// Insert stores a new message. A duplicate reference is a no-op and
// returns false; the unique constraint backs the check at the storage
// boundary.
func (r *MessagesRepository) Insert(ctx context.Context, record *entities.TransactionRecord) (bool, error) {
	if record.Reference == nil {
		return false, errors.New("record has no transaction reference")
	}

	var inserted bool
	err := r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		companyInfo, err := marshalProfile(record.CompanyInfo)
		if err != nil {
			return err
		}
		receiverInfo, err := marshalProfile(record.ReceiverInfo)
		if err != nil {
			return err
		}

		// Дубликат давит уникальный индекс, а не проверка перед вставкой:
		// гонка двух писателей с одной ссылкой тоже дает тихий no-op.
		tag, err := r.db(ctx).Exec(ctx, insertMessageQuery,
			record.Reference, record.Type, record.Date, record.Currency, record.Amount,
			record.Sender.Account, record.Sender.INN, record.Sender.Name,
			record.Sender.Address, record.Sender.BankCode,
			record.Receiver.Account, record.Receiver.INN, record.Receiver.KPP,
			record.Receiver.Name, record.Receiver.BankCode,
			record.Receiver.TransitAccount, record.Receiver.BankName,
			record.Purpose, record.Fees, companyInfo, receiverInfo)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		inserted = tag.RowsAffected() > 0
		if !inserted {
			r.logger.Info("Message already recorded", "reference", *record.Reference)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// FindAll returns all stored messages, newest first.
func (r *MessagesRepository) FindAll(ctx context.Context) ([]entities.TransactionRecord, error) {
	query := `SELECT id, ` + messageColumns + `, created_at
		FROM swift_messages
		ORDER BY id DESC`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entities.TransactionRecord
	for rows.Next() {
		record, err := scanMessage(rows)
		if err != nil {
			r.logger.Error("failed to scan message row", "error", err)
			return nil, err
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

// FindByReference returns one message or nil when it is not stored.
func (r *MessagesRepository) FindByReference(ctx context.Context, reference string) (*entities.TransactionRecord, error) {
	query := `SELECT id, ` + messageColumns + `, created_at
		FROM swift_messages
		WHERE transaction_reference = $1`

	row := r.db(ctx).QueryRow(ctx, query, reference)

	record, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

func scanMessage(row pgx.Row) (*entities.TransactionRecord, error) {
	var (
		record       entities.TransactionRecord
		companyInfo  []byte
		receiverInfo []byte
	)

	err := row.Scan(&record.ID,
		&record.Reference, &record.Type, &record.Date, &record.Currency, &record.Amount,
		&record.Sender.Account, &record.Sender.INN, &record.Sender.Name,
		&record.Sender.Address, &record.Sender.BankCode,
		&record.Receiver.Account, &record.Receiver.INN, &record.Receiver.KPP,
		&record.Receiver.Name, &record.Receiver.BankCode,
		&record.Receiver.TransitAccount, &record.Receiver.BankName,
		&record.Purpose, &record.Fees, &companyInfo, &receiverInfo,
		&record.CreatedAt)
	if err != nil {
		return nil, err
	}

	if record.CompanyInfo, err = unmarshalProfile(companyInfo); err != nil {
		return nil, err
	}
	if record.ReceiverInfo, err = unmarshalProfile(receiverInfo); err != nil {
		return nil, err
	}

	return &record, nil
}

// Профили хранятся как jsonb, nil остается NULL.
func marshalProfile(profile *entities.CompanyProfile) ([]byte, error) {
	if profile == nil {
		return nil, nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal company profile: %w", err)
	}
	return data, nil
}

func unmarshalProfile(data []byte) (*entities.CompanyProfile, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var profile entities.CompanyProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal company profile: %w", err)
	}
	return &profile, nil
}
