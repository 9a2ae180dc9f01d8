// Package backup exports every table to a single JSON document and
// restores from one. An import either replaces all four tables or leaves
// them untouched.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

const Version = 1

var ErrInvalidFormat = errors.New("invalid backup file format")

const (
	messageInvalid = "Invalid backup file format."
	messageParse   = "Failed to parse backup file."
)

type Document struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exportedAt"`
	Players    []models.Player      `json:"players"`
	Games      []models.Game        `json:"games"`
	Sessions   []models.GameSession `json:"sessions"`
	Scores     []models.ScoreData   `json:"scores"`
}

// incoming is a Document as read from disk. Pointers tell missing fields
// apart from empty ones.
type incoming struct {
	Version    *int                  `json:"version"`
	ExportedAt string                `json:"exportedAt"`
	Players    *[]models.Player      `json:"players"`
	Games      *[]models.Game        `json:"games"`
	Sessions   *[]models.GameSession `json:"sessions"`
	Scores     *models.ScoreList     `json:"scores"`
}

// Result is what an import reports back to the user.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Service struct {
	store store.Store
	Now   func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{
		store: s,
		Now:   time.Now,
	}
}

// Snapshot reads the full content of every table.
func (s *Service) Snapshot(ctx context.Context) (*Document, error) {
	tables, err := store.ReadAll(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("could not read tables: %w", err)
	}

	document := &Document{
		Version:    Version,
		ExportedAt: s.Now().UTC(),
		Players:    tables.Players,
		Games:      tables.Games,
		Sessions:   tables.Sessions,
		Scores:     tables.Scores,
	}

	// Empty tables are written as [] rather than null
	if document.Players == nil {
		document.Players = []models.Player{}
	}
	if document.Games == nil {
		document.Games = []models.Game{}
	}
	if document.Sessions == nil {
		document.Sessions = []models.GameSession{}
	}
	if document.Scores == nil {
		document.Scores = []models.ScoreData{}
	}

	return document, nil
}

// Export writes the backup document as indented JSON.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	document, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("could not encode backup: %w", err)
	}

	log.Debug().
		Int("players", len(document.Players)).
		Int("games", len(document.Games)).
		Int("sessions", len(document.Sessions)).
		Int("scores", len(document.Scores)).
		Msg("exported backup")
	return nil
}

// Parse validates a backup document without touching any table.
func Parse(data []byte) (*store.Tables, error) {
	var document incoming
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	if document.Version == nil ||
		document.Players == nil ||
		document.Games == nil ||
		document.Sessions == nil ||
		document.Scores == nil {
		return nil, ErrInvalidFormat
	}

	if *document.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, *document.Version)
	}

	return &store.Tables{
		Players:  *document.Players,
		Games:    *document.Games,
		Sessions: *document.Sessions,
		Scores:   *document.Scores,
	}, nil
}

// Import replaces every table with the content of a backup document.
// Problems with the document are reported in the Result alone; a storage
// failure is also returned as an error.
func (s *Service) Import(ctx context.Context, data []byte) (Result, error) {
	tables, err := Parse(data)
	if errors.Is(err, ErrInvalidFormat) {
		log.Warn().Err(err).Msg("rejected backup")
		return Result{Message: messageInvalid}, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("could not parse backup")
		return Result{Message: messageParse}, nil
	}

	if err := s.store.Replace(ctx, *tables); err != nil {
		return Result{Message: messageParse}, fmt.Errorf("could not replace tables: %w", err)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf(
			"Imported %d players, %d games, %d sessions.",
			len(tables.Players),
			len(tables.Games),
			len(tables.Sessions),
		),
	}, nil
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// WriteFile exports to path, gzipped when it ends in .gz.
func (s *Service) WriteFile(ctx context.Context, path string) error {
	var buffer bytes.Buffer

	if compressed(path) {
		writer := gzip.NewWriter(&buffer)
		if err := s.Export(ctx, writer); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
	} else if err := s.Export(ctx, &buffer); err != nil {
		return err
	}

	return os.WriteFile(path, buffer.Bytes(), 0644)
}

// ReadFile imports from path, which may be gzipped.
func (s *Service) ReadFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Message: messageParse}, err
	}

	if compressed(path) {
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return Result{Message: messageParse}, nil
		}
		defer reader.Close()

		data, err = io.ReadAll(reader)
		if err != nil {
			return Result{Message: messageParse}, nil
		}
	}

	return s.Import(ctx, data)
}

// DefaultFilename names a backup taken at t.
func DefaultFilename(t time.Time) string {
	return fmt.Sprintf("tally-backup-%s.json", t.Format("2006-01-02"))
}
