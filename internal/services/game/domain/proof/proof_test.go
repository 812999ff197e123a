package proof

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

func TestNewRequiresTargetName(t *testing.T) {
	if _, err := New("pr1", "p1", "  ", "https://media/x", now); !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("err = %v, want ErrTargetRequired", err)
	}
}

func TestVerifyTransition(t *testing.T) {
	p, err := New("pr1", "p1", "Alex Doe", "https://media/x", now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Status != StatusPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}

	if err := p.Verify("admin-1", "clean hit", now.Add(time.Minute)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Status != StatusVerified {
		t.Fatalf("status = %q, want verified", p.Status)
	}
	if p.Review == nil || p.Review.Reviewer != "admin-1" || p.Review.Notes != "clean hit" {
		t.Fatalf("review = %+v", p.Review)
	}

	if err := p.Reject("admin-2", "changed my mind", now.Add(2*time.Minute)); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
	if p.Status != StatusVerified || p.Review.Reviewer != "admin-1" {
		t.Fatal("terminal state must not change after a failed transition")
	}
}

func TestRejectIsTerminal(t *testing.T) {
	p, err := New("pr1", "p1", "Alex Doe", "", now)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Reject("admin-1", "blurry photo", now); err != nil {
		t.Fatalf("reject: %v", err)
	}

	before := *p.Review
	if err := p.Reject("admin-1", "still blurry", now.Add(time.Minute)); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second reject err = %v, want ErrNotPending", err)
	}
	if *p.Review != before {
		t.Fatal("second reject must not mutate the review stamp")
	}
}
