package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransactionAddAndGet(t *testing.T) {
	store := NewTransactionStore()

	record := TransactionRecord{
		Gateway:       "esewa",
		Status:        StatusSuccess,
		Params:        map[string]any{"ref_id": "0001"},
		TransactionID: "tx-1",
	}
	store.Add(record)

	got, ok := store.Get("tx-1")
	require.True(t, ok)
	require.Equal(t, "esewa", got.Gateway)
	require.Equal(t, StatusSuccess, got.Status)
	require.Equal(t, "0001", got.Params["ref_id"])
	require.False(t, got.CreatedAt.IsZero())

	_, ok = store.Get("tx-unknown")
	require.False(t, ok)
}

func TestTransactionUpdate(t *testing.T) {
	store := NewTransactionStore()
	store.Add(TransactionRecord{TransactionID: "tx-1", Status: StatusSuccess})

	before, _ := store.Get("tx-1")
	time.Sleep(5 * time.Millisecond)

	failed := StatusFailure
	store.Update("tx-1", TransactionPatch{Status: &failed, Params: map[string]any{"reason": "timeout"}})

	after, ok := store.Get("tx-1")
	require.True(t, ok)
	require.Equal(t, StatusFailure, after.Status)
	require.Equal(t, "timeout", after.Params["reason"])
	require.True(t, after.UpdatedAt.After(before.UpdatedAt))
	require.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestTransactionUpdateUnknownIDIsNoop(t *testing.T) {
	store := NewTransactionStore()
	store.Add(TransactionRecord{TransactionID: "tx-1", Status: StatusSuccess})

	failed := StatusFailure
	store.Update("tx-ghost", TransactionPatch{Status: &failed})

	got, _ := store.Get("tx-1")
	require.Equal(t, StatusSuccess, got.Status)
	require.Len(t, store.List(), 1)
}

func TestDuplicateTransactionIDs(t *testing.T) {
	store := NewTransactionStore()
	store.Add(TransactionRecord{TransactionID: "tx-dup", Gateway: "esewa", Status: StatusSuccess})
	store.Add(TransactionRecord{TransactionID: "tx-dup", Gateway: "khalti", Status: StatusFailure})

	// both records are retained, first match wins on get and update
	require.Len(t, store.List(), 2)

	got, ok := store.Get("tx-dup")
	require.True(t, ok)
	require.Equal(t, "esewa", got.Gateway)

	failed := StatusFailure
	store.Update("tx-dup", TransactionPatch{Status: &failed})

	all := store.List()
	require.Equal(t, StatusFailure, all[0].Status)
	require.Equal(t, "khalti", all[1].Gateway)
	require.Equal(t, StatusFailure, all[1].Status)
}

func TestListGrowsByOnePerAdd(t *testing.T) {
	store := NewTransactionStore()
	for i := 1; i <= 5; i++ {
		store.Add(TransactionRecord{TransactionID: "tx"})
		require.Len(t, store.List(), i)
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewTransactionStore()
	store.Add(TransactionRecord{TransactionID: "tx-1", Status: StatusSuccess})

	list := store.List()
	list[0].Status = "mangled"
	list[0].TransactionID = "mangled"

	got, ok := store.Get("tx-1")
	require.True(t, ok)
	require.Equal(t, StatusSuccess, got.Status)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	store := NewTransactionStore()
	for _, id := range []string{"a", "b", "c"} {
		store.Add(TransactionRecord{TransactionID: id})
	}

	var ids []string
	for _, rec := range store.List() {
		ids = append(ids, rec.TransactionID)
	}
	require.Equal(t, []string{"a", "b", "c"}, ids)
}
