// Package engine is the rules interpreter for solitaire games described in SGDL.
//
// The package holds the card and pile model, the condition trees attached to
// rules, the evaluator that judges a condition and records a trace of every
// node, and the Engine that validates, applies and enumerates actions.
//
// Core Types:
//
// Rules is a parsed description (see package sgdl). Engine interprets one Rules
// value and keeps no game state of its own: every operation takes a *GameState
// and Apply returns a new state rather than modifying the one passed in. Game
// binds an Engine to a seeded deal and keeps the move history.
//
// Usage:
//
//	rules, err := sgdl.Parse(text)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.NewEngine(rules)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewGame(eng, 42)
//	for _, a := range game.Actions() {
//		fmt.Println(a)
//	}
//	res, err := game.ApplyText("move COLUMN[0] FOUNDATION[0]")
//
// Outcomes:
//
// An illegal action is not an error: Apply returns a Result with Applied unset
// and a Trace explaining which predicates failed. Errors from Apply are
// *FaultError values and mean the description or engine is broken, for example
// automatic moves that never settle.
package engine
