package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

// ProcessorRegistry runs processors registered per resource type. It is
// safe for concurrent use.
type ProcessorRegistry struct {
	mu     sync.RWMutex
	byType map[domain.ResourceType][]ports.ResourceProcessor
}

func NewProcessorRegistry() *ProcessorRegistry {
	return &ProcessorRegistry{byType: map[domain.ResourceType][]ports.ResourceProcessor{}}
}

// DefaultProcessors registers the document, user and audit processors.
func DefaultProcessors(log zerolog.Logger) *ProcessorRegistry {
	reg := NewProcessorRegistry()
	reg.Register(domain.ResourceDocument, DocumentProcessor{})
	reg.Register(domain.ResourceUser, UserProcessor{})
	reg.Register(domain.ResourceAny, AuditLogProcessor{Log: log})
	return reg
}

// Register appends p to the processors for t. Use domain.ResourceAny for
// processors that apply to every type.
func (r *ProcessorRegistry) Register(t domain.ResourceType, p ports.ResourceProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = append(r.byType[t], p)
}

// Process runs the processors for res's type in registration order, then the
// wildcard ones. The first error stops processing.
func (r *ProcessorRegistry) Process(ctx context.Context, res *domain.Resource) error {
	r.mu.RLock()
	chain := make([]ports.ResourceProcessor, 0, len(r.byType[res.Data.Type])+len(r.byType[domain.ResourceAny]))
	chain = append(chain, r.byType[res.Data.Type]...)
	if res.Data.Type != domain.ResourceAny {
		chain = append(chain, r.byType[domain.ResourceAny]...)
	}
	r.mu.RUnlock()

	for _, p := range chain {
		if err := p.Process(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

// DocumentProcessor rejects empty content and trims it.
type DocumentProcessor struct{}

func (DocumentProcessor) Process(_ context.Context, r *domain.Resource) error {
	content, ok := r.Data.Data["content"]
	if !ok {
		return nil
	}
	if content == "" {
		return domain.NewError("processor.document", domain.KindValidation, "Document content cannot be empty")
	}
	r.Data = r.Data.WithData("content", strings.TrimSpace(content))
	return nil
}

// UserProcessor requires an email to contain "@" and "." and stamps created_at.
type UserProcessor struct{}

func (UserProcessor) Process(_ context.Context, r *domain.Resource) error {
	if email, ok := r.Data.Data["email"]; ok && !(strings.Contains(email, "@") && strings.Contains(email, ".")) {
		return domain.NewError("processor.user", domain.KindValidation, "Invalid email format")
	}
	if _, ok := r.Data.Data["created_at"]; !ok {
		r.Data = r.Data.WithData("created_at", processorNow().Format(time.RFC3339))
	}
	return nil
}

// AuditLogProcessor stamps last_modified and logs the change.
type AuditLogProcessor struct {
	Log zerolog.Logger
}

func (p AuditLogProcessor) Process(_ context.Context, r *domain.Resource) error {
	r.Data = r.Data.WithData("last_modified", processorNow().Format(time.RFC3339))
	p.Log.Info().
		Str("id", r.ID).
		Str("type", r.Data.Type.String()).
		Str("name", r.Data.Name).
		Msg("resource.modified")
	return nil
}

var processorNow = func() time.Time { return time.Now().UTC() }
