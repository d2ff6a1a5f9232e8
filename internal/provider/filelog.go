package provider

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
)

// recentMessages bounds the in-memory tail kept for inspection.
const recentMessages = 100

// FileLog is the local development provider: it renders the message and
// appends one line per send to a log file. The file and the in-memory tail
// are shared across handlers, so appends are mutex-serialized.
type FileLog struct {
	templates *Templates
	path      string

	mu     sync.Mutex
	file   *os.File
	recent []string
}

// NewFileLog opens (or creates) the message log at path.
func NewFileLog(templates *Templates, path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open message log: %w", err)
	}
	return &FileLog{templates: templates, path: path, file: f}, nil
}

func (p *FileLog) Send(ctx context.Context, msg Message) error {
	text := p.templates.Render(msg)
	line := fmt.Sprintf("user_id=%s | template=%s | channel=%s | text=%s | reason=%s",
		msg.UserID, msg.TemplateName, msg.Channel, text, msg.Reason)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.file, line); err != nil {
		return fmt.Errorf("append message log: %w", err)
	}
	p.recent = append(p.recent, line)
	if len(p.recent) > recentMessages {
		p.recent = p.recent[len(p.recent)-recentMessages:]
	}
	log.Printf("[Provider] %s", line)
	return nil
}

// Recent returns the latest log lines, oldest first.
func (p *FileLog) Recent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.recent))
	copy(out, p.recent)
	return out
}

// Close releases the underlying log file.
func (p *FileLog) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Close()
}
