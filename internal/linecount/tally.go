package linecount

import (
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tyemirov/loctree/internal/tokenizer"
)

const debugTokenCountFailed = "token count unavailable"

// Totals aggregates every file counted through a Tally.
type Totals struct {
	Files       int
	Lines       int
	Bytes       int64
	BinaryFiles int
	Tokens      int
}

// Tally counts lines through a Counter while accumulating totals, and optionally
// estimates tokens for text files. It is safe for concurrent use.
type Tally struct {
	counter *Counter
	tokens  tokenizer.Counter

	mutex  sync.Mutex
	totals Totals
}

// NewTally wraps counter. tokenCounter may be nil to skip token estimation.
func NewTally(counter *Counter, tokenCounter tokenizer.Counter) *Tally {
	return &Tally{counter: counter, tokens: tokenCounter}
}

// CountLines counts path and adds it to the running totals.
func (tally *Tally) CountLines(path string) int {
	result, countError := tally.counter.Count(path)
	if countError != nil {
		tally.counter.logger.Debug(debugCountFailed, zap.String("path", path), zap.Error(countError))
		result = Result{}
	}

	tokens := 0
	if countError == nil && tally.tokens != nil && !result.Binary {
		tokens = tally.countTokens(path)
	}

	tally.mutex.Lock()
	defer tally.mutex.Unlock()
	tally.totals.Files++
	tally.totals.Lines += result.Lines
	tally.totals.Bytes += result.Bytes
	tally.totals.Tokens += tokens
	if result.Binary {
		tally.totals.BinaryFiles++
	}
	return result.Lines
}

func (tally *Tally) countTokens(path string) int {
	data, readError := afero.ReadFile(tally.counter.fs, path)
	if readError != nil {
		tally.counter.logger.Debug(debugTokenCountFailed, zap.String("path", path), zap.Error(readError))
		return 0
	}
	countResult, tokenError := tokenizer.CountBytes(tally.tokens, data)
	if tokenError != nil {
		tally.counter.logger.Debug(debugTokenCountFailed, zap.String("path", path), zap.Error(tokenError))
		return 0
	}
	return countResult.Tokens
}

// Totals returns a snapshot of the accumulated totals.
func (tally *Tally) Totals() Totals {
	tally.mutex.Lock()
	defer tally.mutex.Unlock()
	return tally.totals
}
