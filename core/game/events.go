package game

// ConnID identifies one client connection. A player's current connection is
// the address for its private events.
type ConnID string

// Event types as they appear on the wire.
const (
	EventWelcome                 = "welcome"
	EventRosterBroadcast         = "roster-broadcast"
	EventPlayerLeft              = "player-left"
	EventTrackStarted            = "track-started"
	EventTrackEnded              = "track-ended"
	EventGuessCorrect            = "guess-correct"
	EventGuessCorrectBroadcast   = "guess-correct-broadcast"
	EventGuessIncorrect          = "guess-incorrect"
	EventGuessIncorrectBroadcast = "guess-incorrect-broadcast"
	EventAlreadyAnswered         = "already-answered"
)

// Event is an outbound message produced by a room.
type Event interface {
	EventType() string
}

// Broadcaster delivers room events. Implementations must not block the
// caller: a slow connection loses messages rather than stalling the room.
type Broadcaster interface {
	// ToRoom sends to every connection in the room except the given one.
	// An empty except sends to everybody.
	ToRoom(roomID string, event Event, except ConnID)
	// ToConn sends to one connection; roomID tells the client which room
	// the event is about.
	ToConn(roomID string, conn ConnID, event Event)
}

// PlayerView is the public face of a player.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Score  int    `json:"score"`
}

type Welcome struct {
	Title         string       `json:"title"`
	State         State        `json:"state"`
	TimeRemaining int64        `json:"timeRemaining"` // ms left in the active round, 0 otherwise
	Players       []PlayerView `json:"players"`
}

type RosterBroadcast struct {
	Joined  PlayerView   `json:"joined"`
	Players []PlayerView `json:"players"`
}

type PlayerLeft struct {
	Player PlayerView `json:"player"`
}

type TrackStarted struct {
	TrackID     int64  `json:"trackId"`
	Fingerprint string `json:"fingerprint"`
}

// Answer reveals the track that just ended.
type Answer struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album"`
	Cover  string `json:"cover"`
}

type NextTrack struct {
	TrackID     int64  `json:"trackId"`
	Fingerprint string `json:"fingerprint"`
}

type TrackEnded struct {
	Answer Answer       `json:"answer"`
	Scores []PlayerView `json:"scores"`
	Next   NextTrack    `json:"next"`
}

type GuessCorrect struct {
	Artist     bool   `json:"artist"`
	Title      bool   `json:"title"`
	FirstBlood bool   `json:"firstBlood"`
	Points     int    `json:"points"`
	Score      int    `json:"score"`
	Message    string `json:"message"`
}

type GuessCorrectBroadcast struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Artist   bool   `json:"artist"`
	Title    bool   `json:"title"`
	Score    int    `json:"score"`
}

type GuessIncorrect struct {
	Guess   string `json:"guess"`
	Message string `json:"message"`
}

type GuessIncorrectBroadcast struct {
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

type AlreadyAnswered struct {
	Side string `json:"side"`
}

func (Welcome) EventType() string                 { return EventWelcome }
func (RosterBroadcast) EventType() string         { return EventRosterBroadcast }
func (PlayerLeft) EventType() string              { return EventPlayerLeft }
func (TrackStarted) EventType() string            { return EventTrackStarted }
func (TrackEnded) EventType() string              { return EventTrackEnded }
func (GuessCorrect) EventType() string            { return EventGuessCorrect }
func (GuessCorrectBroadcast) EventType() string   { return EventGuessCorrectBroadcast }
func (GuessIncorrect) EventType() string          { return EventGuessIncorrect }
func (GuessIncorrectBroadcast) EventType() string { return EventGuessIncorrectBroadcast }
func (AlreadyAnswered) EventType() string         { return EventAlreadyAnswered }
