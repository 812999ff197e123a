// Package proof models submitted elimination claims and their review
// lifecycle.
//
// A proof moves from pending to exactly one of verified or rejected and
// never reverts. The transition functions are the only mutation points so
// the state machine cannot be bypassed by ad hoc status writes.
package proof

import (
	"strings"
	"time"

	apperrors "github.com/manhuntgame/manhunt/internal/platform/errors"
)

var (
	// ErrTargetRequired indicates a claim without a target name.
	ErrTargetRequired = apperrors.New(apperrors.CodeProofTargetRequired, "proof target name is required")
	// ErrNotPending indicates a review of an already-reviewed proof.
	ErrNotPending = apperrors.New(apperrors.CodeInvalidProofState, "proof is not pending")
)

// Status is the review state of a proof.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Review stamps who reviewed a proof, when, and why.
type Review struct {
	Reviewer string
	At       time.Time
	Notes    string
}

// Proof is one submitted elimination claim.
//
// MediaURL is treated as an opaque string; upload and storage of the actual
// media belong to the media store.
type Proof struct {
	ID          string
	SubmitterID string
	TargetName  string
	MediaURL    string
	SubmittedAt time.Time

	Status Status
	// Review is set exactly once, by Verify or Reject.
	Review *Review
}

// New creates a pending proof for a submitted claim.
func New(id, submitterID, targetName, mediaURL string, now time.Time) (Proof, error) {
	targetName = strings.TrimSpace(targetName)
	if targetName == "" {
		return Proof{}, ErrTargetRequired
	}
	return Proof{
		ID:          id,
		SubmitterID: submitterID,
		TargetName:  targetName,
		MediaURL:    strings.TrimSpace(mediaURL),
		SubmittedAt: now.UTC(),
		Status:      StatusPending,
	}, nil
}

// Verify transitions a pending proof to verified.
func (p *Proof) Verify(reviewer, notes string, at time.Time) error {
	return p.review(StatusVerified, reviewer, notes, at)
}

// Reject transitions a pending proof to rejected. Rejection mutates nothing
// else; a second call fails because the proof is no longer pending.
func (p *Proof) Reject(reviewer, notes string, at time.Time) error {
	return p.review(StatusRejected, reviewer, notes, at)
}

func (p *Proof) review(next Status, reviewer, notes string, at time.Time) error {
	if p.Status != StatusPending {
		return apperrors.WithMetadata(apperrors.CodeInvalidProofState, "proof is not pending", map[string]string{
			"proof_id": p.ID,
			"status":   string(p.Status),
		})
	}
	p.Status = next
	p.Review = &Review{
		Reviewer: reviewer,
		At:       at.UTC(),
		Notes:    notes,
	}
	return nil
}
