package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Дубликат ссылки должен гаситься на уровне запроса, а не проверкой
// перед вставкой: только так гонка двух писателей остается no-op.
func TestInsertQueryIgnoresDuplicateReference(t *testing.T) {
	require.Contains(t, insertMessageQuery, "ON CONFLICT (transaction_reference) DO NOTHING")
}

func TestInsertQueryPlaceholdersMatchColumns(t *testing.T) {
	columns := strings.Count(messageColumns, ",") + 1
	require.Equal(t, columns, strings.Count(insertMessageQuery, "$"))
}
