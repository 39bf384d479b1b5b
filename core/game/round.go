package game

import (
	"sort"

	"github.com/samber/lo"
)

// Player is a roster entry. Score survives reconnects and track changes.
type Player struct {
	ID     string
	Name   string
	Avatar string
	Score  int
	Conn   ConnID
}

func (p *Player) view() PlayerView {
	return PlayerView{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Score: p.Score}
}

func views(players []*Player) []PlayerView {
	return lo.Map(players, func(p *Player, _ int) PlayerView { return p.view() })
}

// Scoring is the point table of a room.
type Scoring struct {
	Artist     int
	Title      int
	FirstBlood int
}

// DefaultScoring: a title is worth more than an artist, and the first correct
// answer of each round earns a bonus point.
var DefaultScoring = Scoring{Artist: 1, Title: 2, FirstBlood: 1}

// round tracks who answered what while one track plays.
type round struct {
	trackIndex  int
	foundArtist map[string]bool
	foundTitle  map[string]bool
	firstBlood  bool
	scored      []*Player
}

func newRound(trackIndex int) *round {
	return &round{
		trackIndex:  trackIndex,
		foundArtist: make(map[string]bool),
		foundTitle:  make(map[string]bool),
	}
}

// award records the sides newly found by p and returns the points earned.
// Sides p already found are ignored.
func (r *round) award(p *Player, m Match, s Scoring) (gained Match, points int, firstBlood bool) {
	if m.Artist && !r.foundArtist[p.ID] {
		r.foundArtist[p.ID] = true
		gained.Artist = true
		points += s.Artist
	}
	if m.Title && !r.foundTitle[p.ID] {
		r.foundTitle[p.ID] = true
		gained.Title = true
		points += s.Title
	}
	if !gained.Any() {
		return gained, 0, false
	}
	if !r.firstBlood {
		r.firstBlood = true
		firstBlood = true
		points += s.FirstBlood
	}
	if !lo.Contains(r.scored, p) {
		r.scored = append(r.scored, p)
	}
	return gained, points, firstBlood
}

// leaderboard lists the players who scored this round, best total first.
func (r *round) leaderboard() []PlayerView {
	board := views(r.scored)
	sort.SliceStable(board, func(i, j int) bool { return board[i].Score > board[j].Score })
	return board
}
