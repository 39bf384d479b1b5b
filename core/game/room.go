package game

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"blindtest/logger"
	"blindtest/model"

	"github.com/samber/lo"
)

// State is the lifecycle stage of a room.
type State string

const (
	StateRequesting State = "requesting" // catalog fetch in flight
	StateReady      State = "ready"      // catalog loaded, first track not started
	StateStarted    State = "started"    // a track is playing
	StateWaiting    State = "waiting"    // between two tracks
	StateErrored    State = "errored"    // terminal
)

// Options tune a room. Zero values fall back to sane defaults.
type Options struct {
	RoundDuration     time.Duration
	WaitDuration      time.Duration
	NoImmediateRepeat bool
	InboxSize         int
	Scoring           Scoring
	Phrases           *Phrasebook
	Now               func() time.Time
	// Seed feeds the room's random source. Zero picks one from the clock.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.RoundDuration <= 0 {
		o.RoundDuration = 30 * time.Second
	}
	if o.WaitDuration < 0 {
		o.WaitDuration = 0
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 256
	}
	if o.Scoring == (Scoring{}) {
		o.Scoring = DefaultScoring
	}
	if o.Phrases == nil {
		o.Phrases = NewPhrasebook()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// PlayerInfo is the identity a client joins with.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// OutcomeKind classifies what a guess did.
type OutcomeKind int

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeAlreadyAnswered
)

// Outcome is returned to the caller of SubmitGuess.
type Outcome struct {
	Kind   OutcomeKind
	Gained Match
	Points int
	Score  int
}

// Snapshot is a consistent copy of a room's state.
type Snapshot struct {
	ID           string
	Title        string
	State        State
	CurrentIndex int
	TrackCount   int
	Deadline     time.Time
	Players      []PlayerView
	RoundActive  bool
	FoundArtist  []string
	FoundTitle   []string
}

type command func(r *Room)

// Room runs one game. Every mutation happens on the room's own goroutine,
// fed through a single inbox, so ticks, joins and guesses are applied in
// the order they arrive.
type Room struct {
	id          string
	opts        Options
	broadcaster Broadcaster
	inbox       chan command
	done        chan struct{}
	status      atomic.Value // State, readable from any goroutine

	// owned by the actor goroutine
	rng          *rand.Rand
	title        string
	tracks       []model.Track
	currentIndex int
	state        State
	deadline     time.Time
	players      []*Player
	departed     map[string]*Player // left players by id, kept for their score
	round        *round
}

func newRoom(id string, broadcaster Broadcaster, opts Options) *Room {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &Room{
		id:          id,
		opts:        opts,
		broadcaster: broadcaster,
		inbox:       make(chan command, opts.InboxSize),
		done:        make(chan struct{}),
		rng:         rand.New(rand.NewSource(seed)),
		state:       StateRequesting,
		departed:    make(map[string]*Player),
	}
	r.status.Store(StateRequesting)
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// State returns the last published state without going through the inbox.
func (r *Room) State() State { return r.status.Load().(State) }

func (r *Room) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.inbox:
			r.exec(cmd)
		}
	}
}

// exec applies one command. A panic marks this room errored instead of
// taking the process down with it.
func (r *Room) exec(cmd command) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("room transition panicked",
				logger.String("room_id", r.id),
				logger.Any("panic", rec))
			r.setState(StateErrored)
		}
	}()
	cmd(r)
}

// call runs fn on the actor and waits for it to finish.
func (r *Room) call(ctx context.Context, fn command) error {
	finished := make(chan struct{})
	wrapped := func(r *Room) {
		defer close(finished)
		fn(r)
	}
	select {
	case r.inbox <- wrapped:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) setState(s State) {
	r.state = s
	r.status.Store(s)
}

// Tick asks the room to advance its clock. It never blocks: when the inbox
// is full the tick is dropped and the next one catches up.
func (r *Room) Tick(now time.Time) {
	select {
	case r.inbox <- func(r *Room) { r.handleTick(now) }:
	default:
		logger.Warn("room inbox full, tick dropped", logger.String("room_id", r.id))
	}
}

// Join adds the player to the roster, or rebinds its connection when it is
// already there.
func (r *Room) Join(ctx context.Context, info PlayerInfo, conn ConnID) error {
	return r.call(ctx, func(r *Room) { r.handleJoin(info, conn) })
}

// SubmitGuess scores a guess from a rostered player against the track
// currently playing.
func (r *Room) SubmitGuess(ctx context.Context, playerID, text string) (Outcome, error) {
	var out Outcome
	err := r.call(ctx, func(r *Room) { out = r.handleGuess(playerID, text) })
	return out, err
}

// Leave drops whoever is bound to conn. It reports whether a player left.
func (r *Room) Leave(ctx context.Context, conn ConnID) (bool, error) {
	var left bool
	err := r.call(ctx, func(r *Room) { left = r.handleLeave(conn) })
	return left, err
}

// Snapshot returns a copy of the room state.
func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.call(ctx, func(r *Room) { snap = r.snapshot() })
	return snap, err
}

// deliverCatalog hands the fetch result to the actor. It blocks until the
// inbox accepts it since dropping it would leave the room requesting forever.
func (r *Room) deliverCatalog(ctx context.Context, catalog *model.Catalog, err error) {
	cmd := func(r *Room) { r.handleCatalog(catalog, err) }
	select {
	case r.inbox <- cmd:
	case <-r.done:
	case <-ctx.Done():
	}
}

func (r *Room) handleCatalog(catalog *model.Catalog, err error) {
	if r.state != StateRequesting {
		return
	}
	if err != nil {
		logger.Error("catalog fetch failed", logger.String("room_id", r.id), logger.ErrorField(err))
		r.setState(StateErrored)
		return
	}
	if catalog == nil || len(catalog.Tracks) == 0 {
		logger.Error("catalog has no playable track", logger.String("room_id", r.id))
		r.setState(StateErrored)
		return
	}
	r.title = catalog.Title
	r.tracks = append([]model.Track(nil), catalog.Tracks...)
	r.currentIndex = r.rng.Intn(len(r.tracks))
	r.setState(StateReady)
	logger.Info("catalog loaded",
		logger.String("room_id", r.id),
		logger.String("title", r.title),
		logger.Int("tracks", len(r.tracks)))
}

func (r *Room) handleTick(now time.Time) {
	switch r.state {
	case StateReady:
		r.startTrack(now)
	case StateStarted:
		if now.After(r.deadline) {
			r.endTrack(now)
		}
	case StateWaiting:
		if now.After(r.deadline) {
			r.startTrack(now)
		}
	}
}

func (r *Room) startTrack(now time.Time) {
	track := &r.tracks[r.currentIndex]
	fingerprint := track.EnsureFingerprint()
	r.round = newRound(r.currentIndex)
	r.deadline = now.Add(r.opts.RoundDuration)
	r.setState(StateStarted)

	r.broadcaster.ToRoom(r.id, TrackStarted{TrackID: track.ID, Fingerprint: fingerprint}, "")
}

func (r *Room) endTrack(now time.Time) {
	ended := r.tracks[r.round.trackIndex]
	scores := r.round.leaderboard()
	r.round = nil

	r.currentIndex = r.nextIndex()
	next := &r.tracks[r.currentIndex]
	fingerprint := next.EnsureFingerprint()
	r.deadline = now.Add(r.opts.WaitDuration)
	r.setState(StateWaiting)

	r.broadcaster.ToRoom(r.id, TrackEnded{
		Answer: Answer{
			Artist: ended.ArtistName,
			Title:  ended.Title,
			Album:  ended.AlbumTitle,
			Cover:  ended.CoverURL,
		},
		Scores: scores,
		Next:   NextTrack{TrackID: next.ID, Fingerprint: fingerprint},
	}, "")
}

// nextIndex draws uniformly over the tracklist, optionally skipping the
// track that just played.
func (r *Room) nextIndex() int {
	n := len(r.tracks)
	if n == 1 {
		return 0
	}
	if !r.opts.NoImmediateRepeat {
		return r.rng.Intn(n)
	}
	i := r.rng.Intn(n - 1)
	if i >= r.currentIndex {
		i++
	}
	return i
}

func (r *Room) handleJoin(info PlayerInfo, conn ConnID) {
	if info.ID == "" {
		info.ID = string(conn)
	}

	player, found := lo.Find(r.players, func(p *Player) bool { return p.ID == info.ID })
	rejoin := found
	if !found {
		if player, rejoin = r.departed[info.ID]; rejoin {
			delete(r.departed, info.ID)
		} else {
			player = &Player{ID: info.ID, Name: info.ID}
		}
		r.players = append(r.players, player)
	}
	player.Conn = conn
	if info.Name != "" {
		player.Name = info.Name
	}
	if info.Avatar != "" {
		player.Avatar = info.Avatar
	}
	logger.Debug("player joined",
		logger.String("room_id", r.id),
		logger.String("player_id", player.ID),
		logger.Bool("rejoin", rejoin))

	roster := views(r.players)
	r.broadcaster.ToConn(r.id, conn, Welcome{
		Title:         r.title,
		State:         r.state,
		TimeRemaining: r.remaining(),
		Players:       roster,
	})
	r.broadcaster.ToRoom(r.id, RosterBroadcast{Joined: player.view(), Players: roster}, conn)
}

func (r *Room) remaining() int64 {
	if r.state != StateStarted {
		return 0
	}
	left := r.deadline.Sub(r.opts.Now())
	if left < 0 {
		return 0
	}
	return left.Milliseconds()
}

func (r *Room) handleLeave(conn ConnID) bool {
	_, idx, found := lo.FindIndexOf(r.players, func(p *Player) bool { return p.Conn == conn })
	if !found {
		return false
	}
	player := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	player.Conn = ""
	r.departed[player.ID] = player
	logger.Debug("player left", logger.String("room_id", r.id), logger.String("player_id", player.ID))

	r.broadcaster.ToRoom(r.id, PlayerLeft{Player: player.view()}, conn)
	return true
}

func (r *Room) handleGuess(playerID, text string) Outcome {
	if r.state != StateStarted || r.round == nil {
		return Outcome{Kind: OutcomeIgnored}
	}
	player, found := lo.Find(r.players, func(p *Player) bool { return p.ID == playerID })
	if !found {
		return Outcome{Kind: OutcomeIgnored}
	}

	track := r.tracks[r.round.trackIndex]
	match := Evaluate(text, track.ArtistName, track.AnswerTitle())
	if !match.Any() {
		r.broadcaster.ToConn(r.id, player.Conn, GuessIncorrect{Guess: text, Message: r.opts.Phrases.Miss(r.rng)})
		r.broadcaster.ToRoom(r.id, GuessIncorrectBroadcast{
			PlayerID: player.ID,
			Message:  r.opts.Phrases.Taunt(r.rng, player.Name, text),
		}, player.Conn)
		return Outcome{Kind: OutcomeIncorrect, Score: player.Score}
	}

	gained, points, firstBlood := r.round.award(player, match, r.opts.Scoring)
	if !gained.Any() {
		r.broadcaster.ToConn(r.id, player.Conn, AlreadyAnswered{Side: match.Side()})
		return Outcome{Kind: OutcomeAlreadyAnswered, Score: player.Score}
	}

	player.Score += points
	r.broadcaster.ToConn(r.id, player.Conn, GuessCorrect{
		Artist:     gained.Artist,
		Title:      gained.Title,
		FirstBlood: firstBlood,
		Points:     points,
		Score:      player.Score,
		Message:    r.opts.Phrases.Encouragement(r.rng),
	})
	r.broadcaster.ToRoom(r.id, GuessCorrectBroadcast{
		PlayerID: player.ID,
		Name:     player.Name,
		Artist:   gained.Artist,
		Title:    gained.Title,
		Score:    player.Score,
	}, player.Conn)
	return Outcome{Kind: OutcomeCorrect, Gained: gained, Points: points, Score: player.Score}
}

func (r *Room) snapshot() Snapshot {
	snap := Snapshot{
		ID:           r.id,
		Title:        r.title,
		State:        r.state,
		CurrentIndex: r.currentIndex,
		TrackCount:   len(r.tracks),
		Deadline:     r.deadline,
		Players:      views(r.players),
		RoundActive:  r.round != nil,
	}
	if r.round != nil {
		snap.FoundArtist = lo.Keys(r.round.foundArtist)
		snap.FoundTitle = lo.Keys(r.round.foundTitle)
	}
	return snap
}

func (s State) String() string { return string(s) }

// Playable reports whether ticks can move the room forward.
func (s State) Playable() bool {
	return s != StateRequesting && s != StateErrored
}

func (o OutcomeKind) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeAlreadyAnswered:
		return "already-answered"
	}
	return "ignored"
}
