package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

type MockAudited struct {
	ID        id.ID     `db:"id" json:"id"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type mockRecord struct {
	MockAudited
	Code   string      `db:"code" json:"code"`
	Name   string      `db:"name" json:"name"`
	Amount types.Money `db:"amount" json:"amount"`
	Skip   string      `db:"-" json:"-"`
	NoTag  string
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{"id", "version", "created_at", "code", "name", "amount"}
	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expectedCols))
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		MockAudited: MockAudited{
			ID:        id.New(),
			Version:   5,
			CreatedAt: now,
		},
		Code:   "TEST",
		Name:   "Test Name",
		Amount: types.MustMoney("12.50"),
		Skip:   "ignored",
		NoTag:  "ignored",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "TEST", m["code"])
	assert.Equal(t, "Test Name", m["name"])
	assert.Equal(t, types.MustMoney("12.50"), m["amount"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 6)
}

func TestStructToMap_PointerInput(t *testing.T) {
	rec := &mockRecord{Code: "PTR"}

	m := StructToMap(rec)

	assert.Equal(t, "PTR", m["code"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
