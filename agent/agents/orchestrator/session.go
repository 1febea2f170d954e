package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	copilotx "github.com/tanpawarit/cloud-pricing-assistant/agent/copilot"
)

func (o *Orchestrator) getSession(ctx context.Context) (copilotx.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		return o.session, nil
	}

	session, err := o.backend.CreateSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			o.status.SetCopilot(false, err.Error())
		}
		return nil, fmt.Errorf("create model session: %w", err)
	}
	o.session = session
	o.status.SetCopilot(true, "")
	return session, nil
}

// roundTrip sends msgs and waits for the reply text. Backend failures are
// folded into the reply with copilot.ErrorPrefix.
func (o *Orchestrator) roundTrip(ctx context.Context, msgs []*schema.Message) (string, error) {
	session, err := o.getSession(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return o.backendFailure(err.Error()), nil
	}

	req := copilotx.Request{ID: o.newID(), Messages: msgs}
	start := time.Now()
	defer func() {
		log.Debug().Str("request_id", req.ID).Dur("duration", time.Since(start)).Msg("model round finished")
	}()

	if sub, ok := session.(copilotx.Subscriber); ok {
		return o.awaitEvents(ctx, session, sub, req)
	}
	return o.sendSync(ctx, session, req)
}

func (o *Orchestrator) sendSync(ctx context.Context, session copilotx.Session, req copilotx.Request) (string, error) {
	res, err := session.Send(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return o.backendFailure(err.Error()), nil
	}

	if strings.TrimSpace(res.Content) != "" {
		o.status.SetCopilot(true, "")
		return res.Content, nil
	}

	fetcher, ok := session.(copilotx.ResponseFetcher)
	if !ok || strings.TrimSpace(res.ResponseID) == "" {
		o.status.SetCopilot(true, "")
		return res.Content, nil
	}

	text, err := fetcher.FetchResponse(ctx, res.ResponseID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return o.backendFailure(err.Error()), nil
	}
	o.status.SetCopilot(true, "")
	return text, nil
}

// awaitEvents subscribes before sending so no event for req can be missed.
// Deltas accumulate; a non-empty final message replaces them.
func (o *Orchestrator) awaitEvents(
	ctx context.Context,
	session copilotx.Session,
	sub copilotx.Subscriber,
	req copilotx.Request,
) (string, error) {
	events, cancel := sub.Subscribe()
	defer cancel()

	if _, err := session.Send(ctx, req); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return o.backendFailure(err.Error()), nil
	}

	timer := time.NewTimer(o.responseTimeout)
	defer timer.Stop()

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			log.Warn().Str("request_id", req.ID).Dur("timeout", o.responseTimeout).Msg("model round timed out")
			return "", contractx.ErrResponseTimeout
		case e, ok := <-events:
			if !ok {
				return sb.String(), nil
			}
			if e.RequestID != req.ID {
				continue
			}
			switch e.Type {
			case copilotx.EventMessageDelta:
				sb.WriteString(e.Text)
			case copilotx.EventMessageFinal:
				o.status.SetCopilot(true, "")
				if e.Text == "" {
					return sb.String(), nil
				}
				return e.Text, nil
			case copilotx.EventIdle:
				o.status.SetCopilot(true, "")
				return sb.String(), nil
			case copilotx.EventError:
				return o.backendFailure(e.Text), nil
			}
		}
	}
}

func (o *Orchestrator) backendFailure(msg string) string {
	o.status.SetCopilot(false, msg)
	log.Error().Str("error", msg).Msg("model backend failed")
	return copilotx.ErrorPrefix + msg
}
