// Package session keeps game sessions in memory.
//
// Manager stores sessions under case-insensitive ids and gives every session
// a round built from its config. Generated ids are four hex characters from
// crypto/rand. Each round draws its own random source from the manager's
// seed source, so a manager created WithSeed replays the same spawns.
//
// Sessions are not persisted. CleanupExpiredSessions drops sessions idle for
// longer than a given age; the server runs it on a ticker.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Start over with the same config
//	sess, err = manager.Replace(sess.ID)
package session
