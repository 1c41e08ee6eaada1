package purchasing

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineItem(t *testing.T) {
	po, err := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
	require.NoError(t, err)

	t.Run("copies parent identity", func(t *testing.T) {
		li, err := NewLineItem(po, " 1250-100 ", " Widgets ", "09/03/2025", decimal.NewFromInt(4), fixedNow)
		require.NoError(t, err)
		assert.Equal(t, po.ID, li.PurchaseOrderID)
		assert.Equal(t, "PO10001", li.PONumber)
		assert.Equal(t, "1250-100", li.AccountCode)
		assert.Equal(t, "Widgets", li.Memo)
		assert.Equal(t, LineItemKey{PurchaseOrderID: po.ID, PONumber: "PO10001", Memo: "Widgets", Date: "09/03/2025"}, li.Key())
	})

	t.Run("requires parent", func(t *testing.T) {
		_, err := NewLineItem(nil, "1250", "x", "", decimal.Zero, fixedNow)
		assert.Error(t, err)
	})

	t.Run("requires account", func(t *testing.T) {
		_, err := NewLineItem(po, " ", "x", "", decimal.Zero, fixedNow)
		assert.Error(t, err)
	})

	t.Run("rejects values wider than their column", func(t *testing.T) {
		_, err := NewLineItem(po, "1250", strings.Repeat("m", MaxMemoLength+1), "", decimal.Zero, fixedNow)
		var tooLong *FieldTooLongError
		require.ErrorAs(t, err, &tooLong)
		assert.Equal(t, "memo", tooLong.Field)
		assert.ErrorIs(t, err, ErrFieldTooLong)

		_, err = NewLineItem(po, "1250", "x", "September 1, 2025 (estimated by vendor)", decimal.Zero, fixedNow)
		require.ErrorAs(t, err, &tooLong)
		assert.Equal(t, "date", tooLong.Field)

		// limits count characters, not bytes
		_, err = NewLineItem(po, "1250", strings.Repeat("é", MaxMemoLength), "", decimal.Zero, fixedNow)
		assert.NoError(t, err)
	})
}

func TestLineItemMarkReceived(t *testing.T) {
	po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
	li, err := NewLineItem(po, "1250", "Widgets", "09/03/2025", decimal.Zero, fixedNow)
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	change, changed := li.MarkReceived(true, later)
	require.True(t, changed)
	assert.Equal(t, `Received (line item "Widgets")`, change.Field)
	assert.True(t, li.Received)
	require.NotNil(t, li.ReceivedDate)
	assert.Equal(t, later, *li.ReceivedDate)

	_, changed = li.MarkReceived(true, later)
	assert.False(t, changed)

	_, changed = li.MarkReceived(false, later)
	assert.True(t, changed)
	assert.Nil(t, li.ReceivedDate)
}

func TestNewNote(t *testing.T) {
	po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)

	note, err := NewNote(po, "alice", "called vendor", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, po.ID, note.PurchaseOrderID)
	assert.Equal(t, "121 CROOKHAM CO", note.Vendor)

	_, err = NewNote(po, "alice", "  ", fixedNow)
	assert.Error(t, err)
}
