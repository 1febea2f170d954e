package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	copilotx "github.com/tanpawarit/cloud-pricing-assistant/agent/copilot"
	nodex "github.com/tanpawarit/cloud-pricing-assistant/agent/nodes/orchestrator"
	promptx "github.com/tanpawarit/cloud-pricing-assistant/agent/prompt"
	statex "github.com/tanpawarit/cloud-pricing-assistant/agent/state"
)

const defaultResponseTimeout = 60 * time.Second

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	// ResponseTimeout bounds the wait for an event-driven session to finish
	// one model round. Zero means 60s.
	ResponseTimeout time.Duration
}

type Orchestrator struct {
	backend copilotx.Backend
	tools   contractx.ToolGateway
	prompts promptx.PromptSet
	status  *statex.ConnectionStatus

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu      sync.Mutex
	session copilotx.Session

	responseTimeout time.Duration
	newID           func() string
}

type Option func(*Orchestrator)

func WithRecorder(rec *statex.Recorder) Option {
	return func(o *Orchestrator) {
		if rec != nil {
			o.status = rec.Status()
		}
	}
}

func WithPromptSet(prompts promptx.PromptSet) Option {
	return func(o *Orchestrator) {
		o.prompts = prompts
	}
}

func New(
	backend copilotx.Backend,
	tools contractx.ToolGateway,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("model backend is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	timeout := cfg.ResponseTimeout
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}

	o := &Orchestrator{
		backend:         backend,
		tools:           tools,
		prompts:         promptx.LoadPromptSet(),
		status:          statex.Default().Status(),
		responseTimeout: timeout,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one turn and returns the reply text. Only blank input
// and context cancellation come back as errors; every other failure is a
// fixed reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidMessage
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return out.Reply, nil
}

// Connect creates the model session ahead of the first turn and records the
// outcome in the connection status.
func (o *Orchestrator) Connect(ctx context.Context) error {
	_, err := o.getSession(ctx)
	return err
}

// Close releases the model session. A later turn opens a new one.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil
	}
	err := o.session.Close()
	o.session = nil
	o.status.SetCopilot(false, "")
	return err
}
