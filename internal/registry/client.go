package registry

import (
	"context"
	"errors"
	"fmt"
)

// ErrRegistryUnavailable реестр не ответил: таймаут, не-2xx или кривой
// ответ. Ошибка восстанавливается локально, узел графа остается пустым.
var ErrRegistryUnavailable = errors.New("registry unavailable")

// FetchError типизированный отказ одного запроса к реестру.
type FetchError struct {
	Registry   string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %s: status %d", e.Registry, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: fetch %s: %v", e.Registry, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRegistryUnavailable
}

func (e *FetchError) Is(target error) bool {
	return target == ErrRegistryUnavailable
}

// FounderRef учредитель, как его отдает страница реестра: имя и числовой
// идентификатор, если реестр на него ссылается.
type FounderRef struct {
	Name       string
	Identifier string
}

// ProfileFragment частичный профиль компании с одной страницы реестра.
// Отсутствующие поля остаются пустыми строками, а не ошибками.
type ProfileFragment struct {
	Identifier       string
	Name             string
	CEO              string
	Address          string
	RegistrationDate string
	PDFLink          string
	Founders         []FounderRef
}

// Client контракт клиента внешнего бизнес-реестра. Одна реализация на
// реестр; каждая обязана держать свой минимальный интервал между
// запросами, чтобы источник не забанил нас.
type Client interface {
	// Name имя реестра для логов.
	Name() string

	// Search ищет компанию по имени. Пустая строка без ошибки значит
	// "не нашли" — это не отказ.
	Search(ctx context.Context, name string) (string, error)

	// Fetch делает один GET с фиксированным таймаутом и разбирает ответ
	// в частичный профиль. Отказ типизирован и не пролетает дальше.
	Fetch(ctx context.Context, idOrURL string) (*ProfileFragment, error)
}
