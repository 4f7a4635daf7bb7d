// Package config stores the custom games players create.
//
// Each game is a JSON file in the games directory:
//
//	{
//	  "name": "Night Sky",
//	  "images": ["https://cdn.example.com/sun.png", "..."],
//	  "board_size": "easy",
//	  "created_at": 1730000000
//	}
//
// The file name is the slug of the game name, so "Night Sky", "night sky"
// and "NIGHT-SKY" all refer to night-sky.json. The image count decides the
// board: 4 images make an easy board, 9 a medium one and 12 a hard one.
// board_size is recomputed on load.
//
// Usage:
//
//	games, err := config.NewManager("games")
//	if err != nil {
//		log.Fatal(err)
//	}
//	game, err := games.LoadGame("night sky")
//
// Loaded games are cached; RefreshCache drops the cache after files are edited by hand.
package config
