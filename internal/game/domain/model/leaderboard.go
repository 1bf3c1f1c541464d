package model

// LeaderboardEntry ranks one owner by distinct tiles held at query time.
// Ranks are dense from 1; ties on tile count break by owner ID ascending so
// repeated queries over unchanged ownership return identical orderings.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	OwnerID   string `json:"ownerId"`
	Username  string `json:"username"`
	TileCount int64  `json:"tileCount"`
}
