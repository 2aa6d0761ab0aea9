package eval

import (
	"encoding/json"
	"fmt"
)

// RejectReason explains why an utterance was not retained.
type RejectReason string

const (
	// RejectBelowThreshold: the overall score did not reach the applied
	// threshold.
	RejectBelowThreshold RejectReason = "below_threshold"

	// RejectPhatic: the phatic veto fired; the text is small talk regardless
	// of how the categories scored.
	RejectPhatic RejectReason = "phatic"
)

// Decision is the gate's binary outcome. Reason is set only on rejections.
type Decision struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
}

// Accept is the accepting decision.
var Accept = Decision{Accepted: true}

// Reject builds a rejecting decision with the given reason.
func Reject(reason RejectReason) Decision {
	return Decision{Accepted: false, Reason: reason}
}

// SameOutcome reports whether two decisions agree on accept vs reject,
// ignoring the reason. Dataset expectations carry no reason, so correctness
// tallies compare outcomes only.
func (d Decision) SameOutcome(other Decision) bool {
	return d.Accepted == other.Accepted
}

func (d Decision) String() string {
	if d.Accepted {
		return "accept"
	}
	if d.Reason == "" {
		return "reject"
	}
	return "reject:" + string(d.Reason)
}

// MarshalJSON renders the structured form.
func (d Decision) MarshalJSON() ([]byte, error) {
	type wire Decision
	return json.Marshal(wire(d))
}

// UnmarshalJSON accepts both the structured form and the bare dataset strings
// "accept" / "reject".
func (d *Decision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "accept":
			*d = Accept
			return nil
		case "reject":
			*d = Decision{}
			return nil
		default:
			return fmt.Errorf("eval: invalid decision %q (want \"accept\" or \"reject\")", s)
		}
	}
	type wire Decision
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Decision(w)
	return nil
}
