package webhooks

import (
	"errors"
	"testing"

	"github.com/WardWatch/WW-Backend/internal/command"
)

func coord(v float64) *float64 { return &v }

func TestParseCommand_Report(t *testing.T) {
	msg := inboundMessage{
		From: "+23276100200",
		Text: "report Broken pipe | Water flooding the road @ Kissy Road, Freetown",
		Lat:  coord(8.4606),
		Lng:  coord(-12.2684),
	}
	cmd, err := parseCommand(msg)
	if err != nil {
		t.Fatal(err)
	}
	report, ok := cmd.(command.Report)
	if !ok {
		t.Fatalf("expected Report, got %T", cmd)
	}
	if report.Title != "Broken pipe" || report.Description != "Water flooding the road" {
		t.Errorf("unexpected title/description %q / %q", report.Title, report.Description)
	}
	if report.LocationText != "Kissy Road, Freetown" {
		t.Errorf("unexpected location text %q", report.LocationText)
	}
	if report.Lat == nil || *report.Lat != 8.4606 {
		t.Error("shared coordinates should flow into the command")
	}
}

func TestParseCommand_ReportTitleOnly(t *testing.T) {
	cmd, err := parseCommand(inboundMessage{From: "+23276100200", Text: "report Broken streetlight"})
	if err != nil {
		t.Fatal(err)
	}
	report := cmd.(command.Report)
	if report.Title != "Broken streetlight" || report.Description != "" || report.LocationText != "" {
		t.Errorf("unexpected fields %+v", report)
	}
}

func TestParseCommand_Upvote(t *testing.T) {
	cmd, err := parseCommand(inboundMessage{From: "+23276100200", Text: "upvote 42"})
	if err != nil {
		t.Fatal(err)
	}
	up := cmd.(command.Upvote)
	if up.ProblemID != 42 || up.Voter != "+23276100200" {
		t.Errorf("unexpected command %+v", up)
	}
}

func TestParseCommand_VerifyNeedsLocation(t *testing.T) {
	if _, err := parseCommand(inboundMessage{From: "+23276100200", Text: "verify 42"}); err == nil {
		t.Error("verify without a shared location should fail")
	}

	cmd, err := parseCommand(inboundMessage{
		From: "+23276100200", Text: "verify 42",
		Lat: coord(8.46), Lng: coord(-13.23), MediaURL: "https://media/pic.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	v := cmd.(command.Verify)
	if v.ProblemID != 42 || v.Lat != 8.46 || len(v.ImageRefs) != 1 {
		t.Errorf("unexpected command %+v", v)
	}
}

func TestParseCommand_Help(t *testing.T) {
	cmd, err := parseCommand(inboundMessage{From: "+23276100200", Text: "help 7 I have tools and cement"})
	if err != nil {
		t.Fatal(err)
	}
	offer := cmd.(command.OfferHelp)
	if offer.ProblemID != 7 || offer.Message != "I have tools and cement" {
		t.Errorf("unexpected command %+v", offer)
	}
}

func TestParseCommand_DoneNeedsPhoto(t *testing.T) {
	if _, err := parseCommand(inboundMessage{From: "+23276100200", Text: "done 7 fixed"}); err == nil {
		t.Error("done without an attached photo should fail")
	}

	cmd, err := parseCommand(inboundMessage{
		From: "+23276100200", Text: "done 7 patched the pipe", MediaURL: "https://media/proof.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	proof := cmd.(command.SubmitProof)
	if proof.ProblemID != 7 || proof.ProofRef != "https://media/proof.jpg" || proof.Notes != "patched the pipe" {
		t.Errorf("unexpected command %+v", proof)
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, text := range []string{"", "hello there", "upvote", "upvote abc", "upvote 0", "report"} {
		if _, err := parseCommand(inboundMessage{From: "+23276100200", Text: text}); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("%q: expected ErrUnknownCommand, got %v", text, err)
		}
	}
}
