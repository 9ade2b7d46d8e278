package storage

// file.go — store sobre archivos planos, pensado para dry-run y para mantener
// el formato externo estable: positions.json con el conjunto vivo, más
// trades.jsonl y cycles.jsonl append-only con un registro JSON por línea.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/polytrader/internal/domain"
)

const (
	positionsFile = "positions.json"
	tradesFile    = "trades.jsonl"
	cyclesFile    = "cycles.jsonl"
)

// positionsDocument es el documento persistido en positions.json.
type positionsDocument struct {
	Positions          []domain.Position `json:"positions"`
	TotalUnrealizedPnL float64           `json:"totalUnrealizedPnl"`
	PositionCount      int               `json:"positionCount"`
	LastUpdated        time.Time         `json:"lastUpdated"`
}

// File implementa ports.Storage sobre un directorio de archivos JSON/JSONL.
type File struct {
	dir string
}

// NewFile crea el store sobre el directorio dado, creándolo si no existe.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewFile: mkdir %q: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// LoadPositions lee positions.json. Un archivo inexistente es un conjunto
// vacío, no un error.
func (f *File) LoadPositions(_ context.Context) ([]domain.Position, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, positionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPositions: read: %w", err)
	}

	var doc positionsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage.LoadPositions: parse: %w", err)
	}
	return doc.Positions, nil
}

// SavePositions reescribe positions.json de forma atómica: escribe a un
// archivo temporal en el mismo directorio y renombra. Nunca deja un archivo
// a medias.
func (f *File) SavePositions(_ context.Context, positions []domain.Position) error {
	doc := positionsDocument{
		Positions:     positions,
		PositionCount: len(positions),
		LastUpdated:   time.Now().UTC(),
	}
	for _, pos := range positions {
		doc.TotalUnrealizedPnL += pos.UnrealizedPnL
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.SavePositions: marshal: %w", err)
	}

	target := filepath.Join(f.dir, positionsFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("storage.SavePositions: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage.SavePositions: rename: %w", err)
	}
	return nil
}

// AppendTrade añade una línea JSON a trades.jsonl.
func (f *File) AppendTrade(_ context.Context, t domain.TradeRecord) error {
	return f.appendLine(tradesFile, t)
}

// AppendCycle añade una línea JSON a cycles.jsonl.
func (f *File) AppendCycle(_ context.Context, c domain.CycleSummary) error {
	return f.appendLine(cyclesFile, c)
}

// Close no tiene nada que cerrar: cada append abre y cierra su archivo.
func (f *File) Close() error { return nil }

// appendLine serializa v y lo añade como una línea al archivo dado.
func (f *File) appendLine(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage.appendLine: marshal: %w", err)
	}

	path := filepath.Join(f.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("storage.appendLine: open %q: %w", path, err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("storage.appendLine: write %q: %w", path, err)
	}
	return file.Close()
}
