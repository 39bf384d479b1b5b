package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"blindtest/logger"

	"github.com/fsnotify/fsnotify"
)

var defaultEncouragements = []string{
	"Nice one!",
	"You've got ears!",
	"Spot on!",
	"Nailed it!",
	"Look at you go!",
}

// Taunts are format strings: %[1]s is the player name, %[2]s the guess.
var defaultTaunts = []string{
	"%[1]s thinks it's %[2]q. Bless.",
	"%[1]s tried %[2]q. Nope.",
	"%[2]q? Really, %[1]s?",
	"%[1]s went with %[2]q. Bold.",
}

var defaultMisses = []string{
	"Not quite.",
	"Try again!",
	"Nope.",
}

// PhraseFile is the on-disk layout of a phrasebook.
type PhraseFile struct {
	Encouragements []string `json:"encouragements"`
	Taunts         []string `json:"taunts"`
	Misses         []string `json:"misses,omitempty"`
}

// Phrasebook holds the canned lines sent along with guess results. It is
// shared by every room and safe for concurrent use.
type Phrasebook struct {
	mu             sync.RWMutex
	encouragements []string
	taunts         []string
	misses         []string
}

// NewPhrasebook returns a phrasebook with the built-in lines.
func NewPhrasebook() *Phrasebook {
	return &Phrasebook{
		encouragements: defaultEncouragements,
		taunts:         defaultTaunts,
		misses:         defaultMisses,
	}
}

// Encouragement picks a line for a correct guess.
func (p *Phrasebook) Encouragement(rng *rand.Rand) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pick(rng, p.encouragements)
}

// Miss picks a line for the player who guessed wrong.
func (p *Phrasebook) Miss(rng *rand.Rand) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pick(rng, p.misses)
}

// Taunt picks a line for the rest of the room about a wrong guess.
func (p *Phrasebook) Taunt(rng *rand.Rand, name, guess string) string {
	p.mu.RLock()
	tmpl := pick(rng, p.taunts)
	p.mu.RUnlock()
	return fmt.Sprintf(tmpl, name, guess)
}

// Load replaces the lines with the content of a JSON file. Empty lists keep
// the current lines.
func (p *Phrasebook) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read phrasebook: %w", err)
	}
	var file PhraseFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse phrasebook %s: %w", path, err)
	}
	for _, line := range file.Taunts {
		if err := checkTaunt(line); err != nil {
			return fmt.Errorf("phrasebook %s: %w", path, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(file.Encouragements) > 0 {
		p.encouragements = file.Encouragements
	}
	if len(file.Taunts) > 0 {
		p.taunts = file.Taunts
	}
	if len(file.Misses) > 0 {
		p.misses = file.Misses
	}
	return nil
}

// Watch reloads the file whenever it is written until ctx is done. The parent
// directory is watched so editors that replace the file are handled too.
func (p *Phrasebook) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				if err := p.Load(path); err != nil {
					logger.Warn("phrasebook reload failed", logger.String("path", path), logger.ErrorField(err))
					continue
				}
				logger.Info("phrasebook reloaded", logger.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("phrasebook watcher error", logger.ErrorField(err))
			}
		}
	}()
	return nil
}

// checkTaunt rejects taunt lines that do not format cleanly with a name
// and a guess.
func checkTaunt(line string) error {
	out := fmt.Sprintf(line, "name", "guess")
	if strings.Contains(out, "%!") {
		return fmt.Errorf("taunt %q has bad format verbs: %s", line, out)
	}
	return nil
}

func pick(rng *rand.Rand, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[rng.Intn(len(lines))]
}
