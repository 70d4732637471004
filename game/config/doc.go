// Package config loads game variants from JSON files.
//
// A variant names the board size, how many tiles the first grid starts with,
// an optional spawn distribution and the player-facing messages:
//
//	{
//	  "name": "Classic",
//	  "description": "The classic 4x4 board",
//	  "game_size": 4,
//	  "initial_tiles": 2,
//	  "messages": {
//	    "welcome": "Join the tiles!",
//	    "game_over": "Game over! Final score: %d",
//	    "new_high_score": "New best score: %d!"
//	  }
//	}
//
// Manager caches parsed variants by file name. The default variant is
// classic.json, then the first valid file, then the built-in classic board.
package config
