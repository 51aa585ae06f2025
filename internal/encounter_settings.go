package internal

import (
	"fmt"
	"net/url"
	"strings"
)

// Difficulty is the challenge level requested for an encounter.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// LoreMode controls how strictly an encounter follows the world lore links.
type LoreMode string

const (
	LoreStrict   LoreMode = "strict"
	LoreOptional LoreMode = "optional"
	LoreIgnore   LoreMode = "ignore"
)

const (
	// MaxLoreLinks is the most world lore documents an encounter can carry.
	MaxLoreLinks = 10
	MinPlayers   = 1
	MaxPlayers   = 10
)

// LoreLink points at a world lore document.
type LoreLink struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// EncounterSettings are the table-side inputs of an encounter that do not
// come from the category table.
type EncounterSettings struct {
	Players    int        `json:"players" yaml:"players"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	LoreMode   LoreMode   `json:"loreMode" yaml:"loreMode"`
	Lore       []LoreLink `json:"lore,omitempty" yaml:"lore,omitempty"`
}

// DefaultEncounterSettings returns four players, medium difficulty and
// optional lore alignment.
func DefaultEncounterSettings() EncounterSettings {
	return EncounterSettings{Players: 4, Difficulty: DifficultyMedium, LoreMode: LoreOptional}
}

// ParseDifficulty accepts easy, medium or hard in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("invalid difficulty %q (easy, medium or hard)", s)
}

// ParseLoreMode accepts strict, optional or ignore in any case.
func ParseLoreMode(s string) (LoreMode, error) {
	switch m := LoreMode(strings.ToLower(strings.TrimSpace(s))); m {
	case LoreStrict, LoreOptional, LoreIgnore:
		return m, nil
	}
	return "", fmt.Errorf("invalid lore mode %q (strict, optional or ignore)", s)
}

// ParseLoreLink parses "title=url". Only the first '=' separates the two, so
// the URL may carry query parameters.
func ParseLoreLink(s string) (LoreLink, error) {
	title, rawURL, ok := strings.Cut(s, "=")
	if !ok {
		return LoreLink{}, fmt.Errorf("invalid lore link %q, expected title=url", s)
	}
	link := LoreLink{Title: strings.TrimSpace(title), URL: strings.TrimSpace(rawURL)}
	if err := link.Validate(); err != nil {
		return LoreLink{}, err
	}
	return link, nil
}

// Validate requires a title and an absolute http or https URL.
func (l LoreLink) Validate() error {
	if l.Title == "" || l.URL == "" {
		return fmt.Errorf("lore link needs both a title and a URL")
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return fmt.Errorf("invalid lore URL %q: %w", l.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid lore URL %q: need an http or https address", l.URL)
	}
	return nil
}

// AddLore appends link unless the limit is reached or the URL is already
// listed.
func (s *EncounterSettings) AddLore(link LoreLink) error {
	if err := link.Validate(); err != nil {
		return err
	}
	for _, l := range s.Lore {
		if l.URL == link.URL {
			return fmt.Errorf("lore link %s is already listed", link.URL)
		}
	}
	if len(s.Lore) >= MaxLoreLinks {
		return fmt.Errorf("at most %d lore links can be added", MaxLoreLinks)
	}
	s.Lore = append(s.Lore, link)
	return nil
}

// Validate checks every field.
func (s EncounterSettings) Validate() error {
	if s.Players < MinPlayers || s.Players > MaxPlayers {
		return fmt.Errorf("number of players must be within [%d, %d], got %d", MinPlayers, MaxPlayers, s.Players)
	}
	if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
		return err
	}
	if _, err := ParseLoreMode(string(s.LoreMode)); err != nil {
		return err
	}
	if len(s.Lore) > MaxLoreLinks {
		return fmt.Errorf("at most %d lore links can be added, got %d", MaxLoreLinks, len(s.Lore))
	}
	for _, l := range s.Lore {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}
