// Package deck looks up tournament-winning One Piece TCG decklists.
//
// # Pipeline
//
// A deck lookup runs three stages:
//
//  1. Extract: an LLM turns free-form user text into a Filter
//     (set, region, leader card ID)
//  2. Validate: all three filter fields must be present; missing ones
//     produce an InsufficientCriteriaError the agent can relay as a
//     clarifying question
//  3. Query: the client calls the external deck API with the filter and
//     returns the best matching record
//
// Tool wraps the pipeline behind the agent tool interface. Every outcome,
// success or failure, is a structured JSON document the model can read:
// successful lookups carry the formatted decklist and a gumgum.gg
// attribution, failures carry an error type plus guidance for the user.
//
// # Errors
//
// ErrNoDecksFound means the query succeeded but matched nothing.
// ServiceError wraps transport and API failures and marks which of them
// are transient.
package deck
