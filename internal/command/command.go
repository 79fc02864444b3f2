// Package command is the engine's single inbound surface: a closed set of
// command variants dispatched through one exhaustive match. However a front
// end decides to call us — webhook, JSON API, CLI — it must phrase the call
// as one of these, which keeps the contract fixed and auditable.
package command

import "fmt"

// Command is the closed set marker. Submitter and Payload feed the
// idempotency guard's fingerprint.
type Command interface {
	isCommand()
	Submitter() string
	Payload() string
}

type Report struct {
	Reporter     string
	Title        string
	Description  string
	LocationText string
	Lat, Lng     *float64
}

type Upvote struct {
	ProblemID uint
	Voter     string
}

type Verify struct {
	ProblemID uint
	Verifier  string
	Lat, Lng  float64
	ImageRefs []string
}

type OfferHelp struct {
	ProblemID uint
	Volunteer string
	Message   string
}

type SubmitProof struct {
	ProblemID uint
	Volunteer string
	ProofRef  string
	Notes     string
}

func (Report) isCommand()      {}
func (Upvote) isCommand()      {}
func (Verify) isCommand()      {}
func (OfferHelp) isCommand()   {}
func (SubmitProof) isCommand() {}

func (c Report) Submitter() string      { return c.Reporter }
func (c Upvote) Submitter() string      { return c.Voter }
func (c Verify) Submitter() string      { return c.Verifier }
func (c OfferHelp) Submitter() string   { return c.Volunteer }
func (c SubmitProof) Submitter() string { return c.Volunteer }

func (c Report) Payload() string { return "report|" + c.Title + "|" + c.Description }
func (c Upvote) Payload() string { return fmt.Sprintf("upvote|%d", c.ProblemID) }
func (c Verify) Payload() string {
	return fmt.Sprintf("verify|%d|%.5f|%.5f", c.ProblemID, c.Lat, c.Lng)
}
func (c OfferHelp) Payload() string   { return fmt.Sprintf("offer|%d|%s", c.ProblemID, c.Message) }
func (c SubmitProof) Payload() string { return fmt.Sprintf("proof|%d|%s", c.ProblemID, c.ProofRef) }
