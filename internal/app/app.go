package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"visionchat/internal/asset"
	"visionchat/internal/session"
	"visionchat/pkg/domain"
)

const defaultCallTimeout = 60 * time.Second

const analyzedConfirmation = "Image analyzed successfully. Ask me anything about it."

// ImageDescriber derives a textual description from image bytes.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// TextGenerator answers a prompt, optionally with web-search grounding.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, enableSearch bool) (string, error)
}

// Config holds dependencies for the core application.
type Config struct {
	Sessions    session.Store
	Assets      asset.Store
	Describer   ImageDescriber
	Generator   TextGenerator
	CallTimeout time.Duration
}

// App is the core application service wiring storage and the two model
// operations together. It owns the session critical section: every
// load-mutate-save cycle runs under mu so concurrent requests cannot
// interleave and silently drop appended messages. Model calls never run
// under the lock; state is read first, the call happens unlocked, and the
// result is merged under the lock afterwards.
type App struct {
	mu          sync.Mutex
	sessions    session.Store
	assets      asset.Store
	describer   ImageDescriber
	generator   TextGenerator
	callTimeout time.Duration
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Assets == nil {
		return nil, fmt.Errorf("asset store required")
	}
	if cfg.Describer == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("model clients required")
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &App{
		sessions:    cfg.Sessions,
		assets:      cfg.Assets,
		describer:   cfg.Describer,
		generator:   cfg.Generator,
		callTimeout: timeout,
	}, nil
}

// Messages returns the current chat log.
func (a *App) Messages(ctx context.Context) ([]domain.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// ProcessImage stores the upload, runs the extraction against the vision
// model, and records the result in the session. The extracted text itself
// stays server-side; the visible log only gets the user's upload entry and
// a short assistant confirmation.
func (a *App) ProcessImage(ctx context.Context, filename string, file io.Reader, declaredType, mode, instruction string) ([]domain.Message, error) {
	prompt, err := resolveExtractionPrompt(mode, instruction)
	if err != nil {
		return nil, err
	}

	id, err := a.assets.Save(ctx, filename, file)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	// Read the bytes back through the store so extraction always operates
	// on what was durably written.
	rc, inferredType, err := a.assets.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	image, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	mimeType := strings.TrimSpace(declaredType)
	if mimeType == "" {
		mimeType = inferredType
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	extracted, err := a.describer.DescribeImage(callCtx, prompt, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess.LastExtractedData = &extracted
	sess.LastImageID = &id
	userContent := "Uploaded an image for analysis."
	if mode == ModeManual || mode == ModeHybrid {
		if trimmed := strings.TrimSpace(instruction); trimmed != "" {
			userContent = trimmed
		}
	}
	sess = sess.Append(
		domain.Message{Role: domain.RoleUser, Content: userContent, Image: "/images/" + id},
		domain.Message{Role: domain.RoleAssistant, Content: analyzedConfirmation},
	)
	if err := a.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// Chat answers a follow-up question against the last extracted description.
// It requires a successful extraction since the last reset.
func (a *App) Chat(ctx context.Context, question string, enableSearch bool) ([]domain.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	a.mu.Lock()
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	if !sess.HasExtraction() {
		a.mu.Unlock()
		return nil, ErrNoExtraction
	}
	extracted := *sess.LastExtractedData
	a.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	answer, err := a.generator.GenerateText(callCtx, followUpSystemPrompt, buildFollowUpPrompt(extracted, question), enableSearch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	// Re-load before merging: another request may have appended in the
	// meantime and this cycle must not drop its messages.
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err = a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess = sess.Append(
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
	if err := a.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// Reset clears the session record and purges all stored assets.
func (a *App) Reset(ctx context.Context) error {
	a.mu.Lock()
	err := a.sessions.Reset(ctx)
	a.mu.Unlock()
	if err != nil {
		return err
	}
	// Asset deletion is best-effort and independent per file; it does not
	// need the session critical section.
	return a.assets.Clear(ctx)
}
