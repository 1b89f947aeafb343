package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/roach88/hatgram/internal/ir"
)

func seedHistory(t *testing.T, s *Store, n int) {
	t.Helper()
	letters := []string{"a", "b", "c", "d", "e", "f"}
	for i := 1; i <= n; i++ {
		char := letters[(i-1)%len(letters)]
		u := createTestUtterance(fmt.Sprintf("utt-%d", i), "blue "+char, symbolTarget("blue", char), int64(i))
		if err := s.WriteUtterance(context.Background(), u); err != nil {
			t.Fatalf("WriteUtterance(%d) failed: %v", i, err)
		}
	}
}

func TestReadUtterance_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestUtterance("utt-1", "blue air", symbolTarget("blue", "a"), 3)
	if err := s.WriteUtterance(ctx, want); err != nil {
		t.Fatalf("WriteUtterance() failed: %v", err)
	}

	got, err := s.ReadUtterance(ctx, "utt-1")
	if err != nil {
		t.Fatalf("ReadUtterance() failed: %v", err)
	}

	if got.Seq != 3 {
		t.Errorf("seq = %d, want 3", got.Seq)
	}
	if ir.MustTargetHash(got.Target) != ir.MustTargetHash(want.Target) {
		t.Error("target changed across round trip")
	}
	if got.TargetHash != ir.MustTargetHash(want.Target) {
		t.Errorf("target_hash = %q", got.TargetHash)
	}
}

func TestReadUtterance_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadUtterance(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListUtterances_OrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	seedHistory(t, s, 5)

	got, err := s.ListUtterances(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListUtterances() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "utt-4" || got[1].ID != "utt-5" {
		t.Errorf("ids = %s, %s; want the two newest, oldest first", got[0].ID, got[1].ID)
	}
}

func TestListUtterances_NoLimit(t *testing.T) {
	s := createTestStore(t)
	seedHistory(t, s, 4)

	got, err := s.ListUtterances(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListUtterances() failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, u := range got {
		if u.Seq != int64(i+1) {
			t.Errorf("got[%d].Seq = %d, want %d", i, u.Seq, i+1)
		}
	}
}

func TestListUtterances_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListUtterances(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUtterances() failed: %v", err)
	}
	if got == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestReadByTarget(t *testing.T) {
	s := createTestStore(t)
	seedHistory(t, s, 6)

	ctx := context.Background()
	extra := createTestUtterance("utt-7", "blue air", symbolTarget("blue", "a"), 7)
	if err := s.WriteUtterance(ctx, extra); err != nil {
		t.Fatalf("WriteUtterance() failed: %v", err)
	}

	got, err := s.ReadByTarget(ctx, ir.MustTargetHash(symbolTarget("blue", "a")))
	if err != nil {
		t.Fatalf("ReadByTarget() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "utt-1" || got[1].ID != "utt-7" {
		t.Errorf("ids = %s, %s", got[0].ID, got[1].ID)
	}
}

func TestLatestSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("LatestSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty seq = %d, want 0", seq)
	}

	seedHistory(t, s, 3)
	seq, err = s.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("LatestSeq() failed: %v", err)
	}
	if seq != 3 {
		t.Errorf("seq = %d, want 3", seq)
	}
}
