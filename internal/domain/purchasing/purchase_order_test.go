package purchasing

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 9, 2, 14, 30, 0, 0, time.UTC)

func sampleSystem() SystemFields {
	return SystemFields{
		Vendor:     "121 CROOKHAM CO",
		NSStatus:   "Pending Receipt",
		Amount:     decimal.RequireFromString("1234.56"),
		Location:   "Main Warehouse",
		ReportDate: "September 2, 2025",
		OrderDate:  "09/01/2025",
		OrderedAt:  ParseOrderDate("09/01/2025"),
	}
}

func TestNormalizePONumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "PO10001", "PO10001", false},
		{"trimmed", "  PO10001 ", "PO10001", false},
		{"lower case", "po10001", "PO10001", false},
		{"mixed case", "Po-10001a", "PO-10001A", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"inner whitespace", "PO 10001", "", true},
		{"too long", strings.Repeat("9", MaxPONumberLength+1), "", true},
		{"max length", strings.Repeat("9", MaxPONumberLength), strings.Repeat("9", MaxPONumberLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePONumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("starts with empty local fields", func(t *testing.T) {
		po, err := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
		require.NoError(t, err)

		assert.Equal(t, "PO10001", po.PONumber)
		assert.Equal(t, "", po.Local.Status)
		assert.Equal(t, "Pending Receipt", po.System.NSStatus)
		assert.False(t, po.Visibility.IsHidden)
		assert.Equal(t, 1, po.Version)
		require.Len(t, po.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePurchaseOrderCreated, po.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects bad PO number", func(t *testing.T) {
		_, err := NewPurchaseOrder("", sampleSystem(), fixedNow)
		assert.Error(t, err)
	})
}

func TestApplySystemFields(t *testing.T) {
	po, err := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
	require.NoError(t, err)
	po.Local.Status = "Ordered"
	po.Local.Notes = "call vendor"

	later := fixedNow.Add(time.Hour)
	assert.False(t, po.ApplySystemFields(sampleSystem(), later), "identical values are not a change")
	assert.Equal(t, later, po.UpdatedAt)

	updated := sampleSystem()
	updated.NSStatus = "Fully Billed"
	updated.Amount = decimal.RequireFromString("1300")
	assert.True(t, po.ApplySystemFields(updated, later))
	assert.Equal(t, "Fully Billed", po.System.NSStatus)
	assert.Equal(t, "Ordered", po.Local.Status)
	assert.Equal(t, "call vendor", po.Local.Notes)
}

func TestSystemFieldsEqual(t *testing.T) {
	a := sampleSystem()
	b := sampleSystem()
	b.Amount = decimal.RequireFromString("1234.560")
	assert.True(t, a.Equal(b))

	b.OrderedAt = nil
	assert.False(t, a.Equal(b))
}

func TestParseOrderDate(t *testing.T) {
	d := ParseOrderDate("09/01/2025")
	require.NotNil(t, d)
	assert.Equal(t, time.September, d.Month())
	assert.Nil(t, ParseOrderDate(""))
	assert.Nil(t, ParseOrderDate("2025-09-01"))
}

func TestHideAndUnhide(t *testing.T) {
	po, err := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
	require.NoError(t, err)
	po.ClearDomainEvents()

	t.Run("hide records reason and actor", func(t *testing.T) {
		changes, err := po.Hide(HiddenReasonNotInImport, "import", fixedNow)
		require.NoError(t, err)
		assert.Len(t, changes, 2)
		assert.True(t, po.Visibility.IsHidden)
		assert.Equal(t, HiddenReasonNotInImport, po.Visibility.HiddenReason)
		assert.Equal(t, "import", po.Visibility.HiddenBy)
		require.NotNil(t, po.Visibility.HiddenDate)
		assert.Equal(t, EventTypePurchaseOrderHidden, po.GetDomainEvents()[0].EventType())
	})

	t.Run("hide twice is invalid", func(t *testing.T) {
		_, err := po.Hide(HiddenReasonManual, "alice", fixedNow)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unhide clears visibility", func(t *testing.T) {
		_, err := po.Unhide("alice", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, Visibility{}, po.Visibility)
	})

	t.Run("unhide visible is invalid", func(t *testing.T) {
		_, err := po.Unhide("alice", fixedNow)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown reason rejected", func(t *testing.T) {
		_, err := po.Hide(HiddenReason("bogus"), "alice", fixedNow)
		assert.Error(t, err)
		assert.False(t, po.Visibility.IsHidden)
	})
}

func TestApplyLocalPatch(t *testing.T) {
	ptr := func(s string) *string { return &s }

	t.Run("records only changed fields in order", func(t *testing.T) {
		po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
		eta := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

		changes := po.ApplyLocalPatch(LocalFieldsPatch{
			Status:         ptr("Ordered"),
			ETA:            &eta,
			URL:            ptr(""),
			TrackingNumber: ptr("1Z999"),
		})

		require.Len(t, changes, 3)
		assert.Equal(t, FieldStatus, changes[0].Field)
		assert.Equal(t, FieldETA, changes[1].Field)
		assert.Equal(t, FieldTrackingNumber, changes[2].Field)
		assert.Equal(t, "Ordered", po.Local.Status)
		assert.Equal(t, "1Z999", po.Local.TrackingNumber)
		require.NotNil(t, po.Local.ETA)
	})

	t.Run("same values are a no-op", func(t *testing.T) {
		po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
		po.Local.Status = "Ordered"
		before := po.UpdatedAt

		changes := po.ApplyLocalPatch(LocalFieldsPatch{Status: ptr(" Ordered ")})

		assert.Empty(t, changes)
		assert.Equal(t, before, po.UpdatedAt)
	})

	t.Run("same calendar day ETA is a no-op", func(t *testing.T) {
		po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
		eta := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
		po.Local.ETA = &eta
		sameDay := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)

		assert.Empty(t, po.ApplyLocalPatch(LocalFieldsPatch{ETA: &sameDay}))
	})

	t.Run("clear ETA", func(t *testing.T) {
		po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
		eta := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
		po.Local.ETA = &eta

		changes := po.ApplyLocalPatch(LocalFieldsPatch{ClearETA: true})

		require.Len(t, changes, 1)
		assert.Nil(t, changes[0].New)
		assert.Nil(t, po.Local.ETA)
	})

	t.Run("empty patch", func(t *testing.T) {
		assert.True(t, LocalFieldsPatch{}.IsEmpty())
		assert.False(t, LocalFieldsPatch{ClearSnooze: true}.IsEmpty())
	})
}

func TestIsSnoozed(t *testing.T) {
	po, _ := NewPurchaseOrder("PO10001", sampleSystem(), fixedNow)
	assert.False(t, po.IsSnoozed(fixedNow))

	until := fixedNow.Add(24 * time.Hour)
	po.Local.SnoozedUntil = &until
	assert.True(t, po.IsSnoozed(fixedNow))
	assert.False(t, po.IsSnoozed(until.Add(time.Second)))
}
