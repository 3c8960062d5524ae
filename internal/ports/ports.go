package ports

import (
	"context"
	"time"

	"PmdaPipeline/internal/table"
)

// TableStore persists fully materialized tables. Writes are full-table
// replacements so reruns against unchanged input are byte-identical.
type TableStore interface {
	HasTable(ctx context.Context, name string) (bool, error)
	ReadTable(ctx context.Context, name string) (table.Table, error)
	ReplaceTable(ctx context.Context, name string, t table.Table) error
	Close() error
}

// Translator resolves a source-language generic drug name to English, given
// the brand name as context. Best effort; an error or empty result means the
// name stays untranslated.
type Translator interface {
	Translate(ctx context.Context, genericJP, brandJP string) (string, error)
}

// Scheduler controls when pipeline refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
