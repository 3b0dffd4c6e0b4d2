// Package config loads game descriptions from a directory of .sgdl files.
//
// Descriptions are parsed once and cached by id, the file name without its
// extension. The default game is klondike when present, otherwise the first
// loadable file in id order, otherwise a built-in one-suit game.
//
// Usage:
//
//	manager, err := config.NewManager("games")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadGame("spider")
//	games, err := manager.ListGames()
//
// SaveGame parses a description before writing it, so the directory only
// ever holds descriptions that load.
package config
