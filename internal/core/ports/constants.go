package ports

import "time"

const (
	InboxReadRetries = 3                      // Attempts to read a freshly created inbox file
	InboxRetryDelay  = 200 * time.Millisecond // Пауза между попытками чтения
)
