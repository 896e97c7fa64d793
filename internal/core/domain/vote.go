package domain

import (
	"time"

	"github.com/google/uuid"
)

// RollCallVote is a plenary or committee vote session.
type RollCallVote struct {
	ID          string    `db:"id"`
	BillID      *int64    `db:"bill_id"`
	VotedAt     time.Time `db:"voted_at"`
	Outcome     string    `db:"outcome"`
	Nominal     bool      `db:"nominal"`
	YesCount    int       `db:"yes_count"`
	NoCount     int       `db:"no_count"`
	OtherCount  int       `db:"other_count"`
	Description string    `db:"description"`
	Committee   string    `db:"committee"`
}

// IndividualVote is one member's vote in a roll call.
type IndividualVote struct {
	ID         string `db:"id"`
	RollCallID string `db:"roll_call_id"`
	MemberID   int64  `db:"member_id"`
	Value      string `db:"value"`
}

var individualVoteNamespace = uuid.MustParse("5b7f3c1e-9a2d-4e8b-b6a4-1f0c2d3e4a5b")

// IndividualVoteID derives a stable identifier so re-imports produce the same key.
func IndividualVoteID(rollCallID string, memberID int64) string {
	return uuid.NewSHA1(individualVoteNamespace, []byte(rollCallID+"/"+itoa(memberID))).String()
}

// VoteBillLink connects a roll call to a bill it concerned.
type VoteBillLink struct {
	RollCallID string `db:"roll_call_id"`
	BillID     int64  `db:"bill_id"`
	Title      string `db:"title"`
	Summary    string `db:"summary"`
	TypeCode   string `db:"type_code"`
	Number     int    `db:"number"`
	Year       int    `db:"year"`
	Primary    bool   `db:"is_primary"`
}

// PartyGuidance is the vote a party or bloc leadership recommended.
type PartyGuidance struct {
	RollCallID  string `db:"roll_call_id"`
	Bloc        string `db:"bloc"`
	Recommended string `db:"recommended"`
}
