package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResourceKind(t *testing.T) {
	t.Run("known kinds are valid", func(t *testing.T) {
		for _, k := range AllResourceKinds() {
			assert.True(t, k.IsValid(), k.String())
		}
	})

	t.Run("unknown kind is invalid", func(t *testing.T) {
		assert.False(t, ResourceKind("CONTAINER").IsValid())
	})

	t.Run("sweep order is stable", func(t *testing.T) {
		assert.Equal(t, []ResourceKind{KindVirtualMachine, KindManagedApp, KindAddOnSubscription}, AllResourceKinds())
	})
}

func TestBillableResource_BillingAnchor(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("defaults to creation time when never billed", func(t *testing.T) {
		res := &BillableResource{CreatedAt: created}

		assert.Equal(t, created, res.BillingAnchor())
	})

	t.Run("uses checkpoint when set", func(t *testing.T) {
		cp := created.Add(3 * time.Hour)
		res := &BillableResource{CreatedAt: created, Checkpoint: &cp}

		assert.Equal(t, cp, res.BillingAnchor())
	})
}

func TestBillableResource_ElapsedWholeHours(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := &BillableResource{CreatedAt: created}

	t.Run("floors fractional hours", func(t *testing.T) {
		assert.Equal(t, int64(0), res.ElapsedWholeHours(created.Add(59*time.Minute)))
		assert.Equal(t, int64(1), res.ElapsedWholeHours(created.Add(60*time.Minute)))
		assert.Equal(t, int64(1), res.ElapsedWholeHours(created.Add(119*time.Minute)))
		assert.Equal(t, int64(5), res.ElapsedWholeHours(created.Add(5*time.Hour+30*time.Minute)))
	})

	t.Run("clock behind anchor yields zero", func(t *testing.T) {
		assert.Equal(t, int64(0), res.ElapsedWholeHours(created.Add(-time.Minute)))
	})

	t.Run("due only with a whole hour outstanding", func(t *testing.T) {
		assert.False(t, res.IsDue(created.Add(30*time.Minute)))
		assert.True(t, res.IsDue(created.Add(time.Hour)))
	})
}

func TestBillableResource_Describe(t *testing.T) {
	id := uuid.New()
	res := &BillableResource{ID: id, Kind: KindVirtualMachine, Name: "web-1"}

	desc := res.Describe(3)

	assert.Contains(t, desc, "virtual machine web-1")
	assert.Contains(t, desc, id.String())
	assert.Contains(t, desc, "3 hour(s)")
}
