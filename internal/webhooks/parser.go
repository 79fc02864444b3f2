package webhooks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/WardWatch/WW-Backend/internal/command"
)

var ErrUnknownCommand = errors.New("unrecognized command")

// inboundMessage is the gateway's webhook payload for one user message.
type inboundMessage struct {
	From     string   `json:"from"`
	Text     string   `json:"text"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	MediaURL string   `json:"media_url,omitempty"`
}

// parseCommand maps a keyword-prefixed message onto the closed command set.
//
//	report <title> | <description> @ <location text>
//	upvote <id>
//	verify <id>            (needs a shared location in the same message)
//	help <id> [message]
//	done <id> [notes]      (needs an attached proof photo)
//
// Anything else is unknown; the natural-language front end that would handle
// free-form phrasing sits outside this service.
func parseCommand(msg inboundMessage) (command.Command, error) {
	text := strings.TrimSpace(msg.Text)
	keyword, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(keyword) {
	case "report":
		if rest == "" {
			return nil, fmt.Errorf("%w: report needs a title", ErrUnknownCommand)
		}
		body, locText, _ := strings.Cut(rest, "@")
		title, description, _ := strings.Cut(body, "|")
		return command.Report{
			Reporter:     msg.From,
			Title:        strings.TrimSpace(title),
			Description:  strings.TrimSpace(description),
			LocationText: strings.TrimSpace(locText),
			Lat:          msg.Lat,
			Lng:          msg.Lng,
		}, nil

	case "upvote":
		id, err := parseID(rest)
		if err != nil {
			return nil, err
		}
		return command.Upvote{ProblemID: id, Voter: msg.From}, nil

	case "verify":
		id, err := parseID(rest)
		if err != nil {
			return nil, err
		}
		if msg.Lat == nil || msg.Lng == nil {
			return nil, fmt.Errorf("%w: verify needs your shared location", ErrUnknownCommand)
		}
		var refs []string
		if msg.MediaURL != "" {
			refs = []string{msg.MediaURL}
		}
		return command.Verify{
			ProblemID: id,
			Verifier:  msg.From,
			Lat:       *msg.Lat,
			Lng:       *msg.Lng,
			ImageRefs: refs,
		}, nil

	case "help":
		idPart, message, _ := strings.Cut(rest, " ")
		id, err := parseID(idPart)
		if err != nil {
			return nil, err
		}
		return command.OfferHelp{ProblemID: id, Volunteer: msg.From, Message: strings.TrimSpace(message)}, nil

	case "done":
		idPart, notes, _ := strings.Cut(rest, " ")
		id, err := parseID(idPart)
		if err != nil {
			return nil, err
		}
		if msg.MediaURL == "" {
			return nil, fmt.Errorf("%w: done needs a proof photo attached", ErrUnknownCommand)
		}
		return command.SubmitProof{
			ProblemID: id,
			Volunteer: msg.From,
			ProofRef:  msg.MediaURL,
			Notes:     strings.TrimSpace(notes),
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, keyword)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: expected a problem number, got %q", ErrUnknownCommand, s)
	}
	return uint(id), nil
}
