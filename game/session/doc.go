// Package session keeps the live game sessions of a server.
//
// A session pairs a dealt game with its metadata. IDs are short, generated
// from a uuid, and matched case-insensitively. The Manager is safe for
// concurrent use; the games it holds are not, and callers serialize access
// to them.
//
// With FilePersistence configured, each session is stored as JSON holding the
// game id, the seed and the actions applied since the last reset. Loading a
// session deals the seed again and replays the actions, so a stored file
// stays valid for as long as its game description does.
//
//	games, _ := config.NewManager("games")
//	store, _ := session.NewFilePersistence("sessions", games)
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
package session
