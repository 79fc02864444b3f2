package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/WardWatch/WW-Backend/internal/command"
	"github.com/WardWatch/WW-Backend/internal/consensus"
	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/WardWatch/WW-Backend/internal/resolution"
)

// Handler receives messaging-gateway webhooks and turns each message into
// one engine command.
type Handler struct {
	Engine *command.Engine
}

func (h *Handler) InboundMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verifySignature(r.Header.Get("X-Gateway-Signature"), raw, secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if msg.From == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	cmd, err := parseCommand(msg)
	if err != nil {
		reply(w, "Sorry, I didn't understand that. Try: report, upvote, verify, help, done.")
		return
	}

	result, err := h.Engine.Dispatch(r.Context(), cmd)
	reply(w, replyText(cmd, result, err))
}

// reply always answers 200: the gateway retries non-2xx responses, and a
// retry of a user-facing error helps nobody.
func reply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"reply": text})
}

// replyText phrases the engine's outcome for the person on the phone.
func replyText(cmd command.Command, result any, err error) string {
	if err != nil {
		switch {
		case errors.Is(err, command.ErrDuplicateDelivery):
			return "" // original delivery already answered
		case errors.Is(err, problem.ErrNotFound):
			return "That problem number doesn't exist. Check the number and try again."
		case errors.Is(err, resolution.ErrNoOffer):
			return "Offer to help first (send: help <number>), then send your proof."
		case errors.Is(err, resolution.ErrAlreadyResolved):
			return "This problem is already resolved — thank you!"
		case errors.Is(err, problem.ErrValidation),
			errors.Is(err, consensus.ErrValidation),
			errors.Is(err, resolution.ErrValidation):
			return "Something was missing from that message: " + err.Error()
		default:
			return "Something went wrong on our side, please try again shortly."
		}
	}

	switch res := result.(type) {
	case *problem.Problem:
		text := fmt.Sprintf("Reported as problem #%d.", res.ID)
		if res.Ward != "" {
			text += " Ward: " + res.Ward + "."
		}
		return text + " Others can support it with: upvote " + fmt.Sprint(res.ID)
	case *consensus.UpvoteResult:
		if !res.Accepted {
			return fmt.Sprintf("You already upvoted this one. It has %d upvotes.", res.Count)
		}
		return fmt.Sprintf("Upvote counted — %d so far.", res.Count)
	case *consensus.VerifyResult:
		if !res.Accepted {
			return "You already verified this problem."
		}
		text := fmt.Sprintf("Verification %d recorded.", res.Count)
		if res.ThresholdReached {
			text += " The location is now community-verified."
		}
		return text
	case *resolution.OfferResult:
		if !res.Accepted {
			return "You already offered to help here — thank you!"
		}
		return "Thank you for volunteering! Send a photo with: done <number> when fixed."
	case *resolution.ProofResult:
		return "Resolved! Everyone who supported this problem is being notified."
	}
	return "Done."
}

func verifySignature(sig string, raw []byte, secret string) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
