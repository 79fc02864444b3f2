package command

import "testing"

func TestPayload_DistinguishesOperations(t *testing.T) {
	// Two different operations on the same problem from the same person must
	// never share a dedup fingerprint.
	cmds := []Command{
		Upvote{ProblemID: 42, Voter: "+23276100200"},
		Verify{ProblemID: 42, Verifier: "+23276100200", Lat: 8.46, Lng: -13.23},
		OfferHelp{ProblemID: 42, Volunteer: "+23276100200"},
		SubmitProof{ProblemID: 42, Volunteer: "+23276100200", ProofRef: "https://img/p.jpg"},
		Report{Reporter: "+23276100200", Title: "Broken pipe"},
	}

	seen := map[string]Command{}
	for _, c := range cmds {
		p := c.Payload()
		if prev, dup := seen[p]; dup {
			t.Errorf("%T and %T share payload %q", prev, c, p)
		}
		seen[p] = c
	}
}

func TestPayload_Deterministic(t *testing.T) {
	a := Verify{ProblemID: 7, Verifier: "+23276100200", Lat: 8.46061, Lng: -13.23}
	b := Verify{ProblemID: 7, Verifier: "+23276100200", Lat: 8.46061, Lng: -13.23}
	if a.Payload() != b.Payload() {
		t.Error("identical commands must produce identical payloads")
	}
}

func TestSubmitter(t *testing.T) {
	if s := (Upvote{Voter: "+2321"}).Submitter(); s != "+2321" {
		t.Errorf("unexpected submitter %q", s)
	}
	if s := (Report{Reporter: "+2322"}).Submitter(); s != "+2322" {
		t.Errorf("unexpected submitter %q", s)
	}
}
