package mirror

import (
	"context"
	"errors"
	"testing"
)

func TestInsertMaterial_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	loc := mustPoint(t, -73.9857, 40.7484)
	m := createTestMaterial("MAT-1", 1700000000)
	m.Location = &loc

	if err := s.InsertMaterial(ctx, m); err != nil {
		t.Fatalf("InsertMaterial() failed: %v", err)
	}

	got, err := s.GetMaterial(ctx, "MAT-1")
	if err != nil {
		t.Fatalf("GetMaterial() failed: %v", err)
	}

	if got.MaterialID != m.MaterialID {
		t.Errorf("MaterialID = %q, want %q", got.MaterialID, m.MaterialID)
	}
	if got.Description != m.Description {
		t.Errorf("Description = %q, want %q", got.Description, m.Description)
	}
	if got.CurrentHolder != m.CurrentHolder {
		t.Errorf("CurrentHolder = %q, want %q", got.CurrentHolder, m.CurrentHolder)
	}
	if got.Status != StatusCreated {
		t.Errorf("Status = %q, want %q", got.Status, StatusCreated)
	}
	if got.Metadata["batch"] != "B-17" {
		t.Errorf("Metadata[batch] = %v, want B-17", got.Metadata["batch"])
	}
	if got.Location == nil {
		t.Fatal("Location = nil, want point")
	}
	if got.Location.Lng() != loc.Lng() || got.Location.Lat() != loc.Lat() {
		t.Errorf("Location = (%v, %v), want (%v, %v)",
			got.Location.Lng(), got.Location.Lat(), loc.Lng(), loc.Lat())
	}
}

func TestInsertMaterial_NoLocation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.InsertMaterial(ctx, createTestMaterial("MAT-1", 100)); err != nil {
		t.Fatalf("InsertMaterial() failed: %v", err)
	}

	got, err := s.GetMaterial(ctx, "MAT-1")
	if err != nil {
		t.Fatalf("GetMaterial() failed: %v", err)
	}
	if got.Location != nil {
		t.Errorf("Location = %v, want nil", got.Location)
	}
}

func TestInsertMaterial_DuplicateKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.InsertMaterial(ctx, createTestMaterial("MAT-1", 100)); err != nil {
		t.Fatalf("first InsertMaterial() failed: %v", err)
	}

	err := s.InsertMaterial(ctx, createTestMaterial("MAT-1", 200))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateKey", err)
	}
}

func TestGetMaterial_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetMaterial(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListMaterials_OrderedByCreation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert out of creation order; same created_at ties break by id.
	for _, m := range []*Material{
		createTestMaterial("MAT-C", 300),
		createTestMaterial("MAT-A", 100),
		createTestMaterial("MAT-B2", 200),
		createTestMaterial("MAT-B1", 200),
	} {
		if err := s.InsertMaterial(ctx, m); err != nil {
			t.Fatalf("InsertMaterial(%s) failed: %v", m.MaterialID, err)
		}
	}

	materials, err := s.ListMaterials(ctx)
	if err != nil {
		t.Fatalf("ListMaterials() failed: %v", err)
	}

	want := []string{"MAT-A", "MAT-B1", "MAT-B2", "MAT-C"}
	if len(materials) != len(want) {
		t.Fatalf("got %d materials, want %d", len(materials), len(want))
	}
	for i, id := range want {
		if materials[i].MaterialID != id {
			t.Errorf("materials[%d] = %q, want %q", i, materials[i].MaterialID, id)
		}
	}
}

func TestUpdateMaterialState_OverwritesLedgerFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.InsertMaterial(ctx, createTestMaterial("MAT-1", 100)); err != nil {
		t.Fatalf("InsertMaterial() failed: %v", err)
	}

	if err := s.UpdateMaterialState(ctx, "MAT-1", "acme-corp", 3, StatusInTransit, "0xfeed"); err != nil {
		t.Fatalf("UpdateMaterialState() failed: %v", err)
	}

	got, err := s.GetMaterial(ctx, "MAT-1")
	if err != nil {
		t.Fatalf("GetMaterial() failed: %v", err)
	}
	if got.CurrentHolder != "acme-corp" {
		t.Errorf("CurrentHolder = %q, want acme-corp", got.CurrentHolder)
	}
	if got.LastSequence != 3 {
		t.Errorf("LastSequence = %d, want 3", got.LastSequence)
	}
	if got.Status != StatusInTransit {
		t.Errorf("Status = %q, want %q", got.Status, StatusInTransit)
	}
	if got.TxHash != "0xfeed" {
		t.Errorf("TxHash = %q, want 0xfeed", got.TxHash)
	}
}

func TestUpdateMaterialState_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.UpdateMaterialState(context.Background(), "missing", "h", 1, StatusInTransit, "0x1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRefreshMaterialLedger_LeavesStatusAndTxHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.InsertMaterial(ctx, createTestMaterial("MAT-1", 100)); err != nil {
		t.Fatalf("InsertMaterial() failed: %v", err)
	}

	if err := s.RefreshMaterialLedger(ctx, "MAT-1", "new-holder", 7); err != nil {
		t.Fatalf("RefreshMaterialLedger() failed: %v", err)
	}

	got, err := s.GetMaterial(ctx, "MAT-1")
	if err != nil {
		t.Fatalf("GetMaterial() failed: %v", err)
	}
	if got.CurrentHolder != "new-holder" || got.LastSequence != 7 {
		t.Errorf("ledger fields = (%q, %d), want (new-holder, 7)", got.CurrentHolder, got.LastSequence)
	}
	if got.Status != StatusCreated {
		t.Errorf("Status = %q, want unchanged %q", got.Status, StatusCreated)
	}
	if got.TxHash != "0xabc" {
		t.Errorf("TxHash = %q, want unchanged 0xabc", got.TxHash)
	}
}

func TestMaterial_EmptyMetadataRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestMaterial("MAT-1", 100)
	m.Metadata = nil
	if err := s.InsertMaterial(ctx, m); err != nil {
		t.Fatalf("InsertMaterial() failed: %v", err)
	}

	got, err := s.GetMaterial(ctx, "MAT-1")
	if err != nil {
		t.Fatalf("GetMaterial() failed: %v", err)
	}
	if got.Metadata == nil {
		t.Error("Metadata = nil, want empty map")
	}
	if len(got.Metadata) != 0 {
		t.Errorf("Metadata = %v, want empty", got.Metadata)
	}
}
