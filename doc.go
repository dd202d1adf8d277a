// Package debate runs live two-option quiz sessions, ranks participants by
// how closely their answers agree, and sells access to those rankings for
// in-app credits.
//
// Debate is designed as a library first. The Engine holds every operation;
// the router package puts it on a websocket, the server package adds the
// HTTP surface, and cmd/debated wires both into a binary. It provides:
//
//   - Quiz sessions with an owner, joiners, ordered questions and one
//     answer per participant per question
//   - Pairwise compatibility ranking cached per participant
//   - Tiered match reveals (free preview, top three, full list)
//   - An append-only credit ledger whose balance never goes negative
//   - Idempotent feature purchases backed by entitlement grants
//   - A per-session question quota that the owner can unlock
//   - Audit and metrics plugins driven by lifecycle hooks
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/debate"
//	    "github.com/xraph/debate/store/memory"
//	)
//
//	e := debate.New(memory.New())
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	s, err := e.CreateSession(ctx, "owner-1", "Olive")
//	_, err = e.PublishQuestion(ctx, s.ID.String(), "owner-1", debate.QuestionDraft{
//	    Prompt:        "Cats or dogs?",
//	    Options:       []string{"cats", "dogs"},
//	    OwnerResponse: "cats",
//	})
//
// # Matching
//
// Compatibility between two participants is the share of agreeing answers
// over the questions both answered, as a percentage rounded to two
// decimals. Rankings are sorted by percentage descending with ties broken
// by participant id, and cached until the session gains a question,
// response or participant, or the cache TTL passes.
//
//	res, err := e.RevealMatches(ctx, sessionID, participantID, match.TierTop3)
//	var ib *debate.InsufficientBalanceError
//	if errors.As(err, &ib) {
//	    // ask the participant to buy ib.Required - ib.Current more credits
//	}
//
// # Credits
//
// Every balance change is a ledger entry. Purchases append a negative
// entry only when the balance covers it, under a per-key lock, so two
// concurrent purchases of the same feature charge once.
//
//	e.Credit(ctx, participantID, 10, credit.ReasonPurchase)
//	res, err := e.Purchase(ctx, participantID, sessionID, entitlement.FeatureMatchAll)
//
// # TypeID
//
// Sessions, questions, responses and grants use TypeID identifiers:
//
//	quiz_01h2xcejqtf2nbrexx3vqjhp41   // Session ID
//	q_01h2xcejqtf2nbrexx3vqjhp41      // Question ID
//	grant_01h455vb4pex5vsknk084sn02q  // Grant ID
//
// Ledger entries use snowflake ids so history sorts by id.
package debate
