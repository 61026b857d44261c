package model

// Score is one player's cumulative reaped seconds in one server.
type Score struct {
	PlayerID string `json:"playerId" bson:"playerId"`
	ServerID string `json:"serverId" bson:"serverId"`
	Seconds  int    `json:"seconds" bson:"seconds"`
}

// GameCounter tracks how many games a server has ever started. It is
// never deleted; its value assigns the next game number.
type GameCounter struct {
	ServerID string `json:"serverId" bson:"_id"`
	Count    int    `json:"count" bson:"count"`
}
