// Package player contains automated solitaire players.
//
// Random and NoRepeat pick from the legal actions, optionally guided by a
// Heuristic that scores the position each action leads to. MCTS runs a
// Monte Carlo tree search over a scrambled copy of the position. A
// LuaHeuristic lets a script score positions without recompiling.
//
// Players are deterministic for a given seed.
package player
