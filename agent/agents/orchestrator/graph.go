package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/cloud-pricing-assistant/agent/nodes/orchestrator"
)

const (
	nodeValidateRequest = "validate_request"
	nodePlanTurn        = "plan_turn"
	nodeDispatchPlan    = "dispatch_plan"
	nodeExecuteTools    = "execute_tools"
	nodeAnswerTurn      = "answer_turn"
	nodeFinalizeReply   = "finalize_reply"
)

func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodePlanTurn,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlanTurn(ctx, in, o.prompts, o.roundTrip)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodePlanTurn, err)
	}

	if err := graph.AddLambdaNode(nodeDispatchPlan,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchPlan(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeDispatchPlan, err)
	}

	if err := graph.AddLambdaNode(nodeExecuteTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeExecuteTools, err)
	}

	if err := graph.AddLambdaNode(nodeAnswerTurn,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnswerTurn(ctx, in, o.prompts, o.roundTrip)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeAnswerTurn, err)
	}

	if err := graph.AddLambdaNode(nodeFinalizeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeFinalizeReply, err)
	}

	// Each step either hands over to the next one or, once a reply is
	// settled, jumps straight to finalize_reply.
	steps := [][2]string{
		{nodeValidateRequest, nodePlanTurn},
		{nodePlanTurn, nodeDispatchPlan},
		{nodeDispatchPlan, nodeExecuteTools},
		{nodeExecuteTools, nodeAnswerTurn},
	}
	for _, step := range steps {
		if err := graph.AddBranch(step[0], doneOr(step[1])); err != nil {
			return nil, fmt.Errorf("add branch %s: %w", step[0], err)
		}
	}

	edges := [][2]string{
		{compose.START, nodeValidateRequest},
		{nodeAnswerTurn, nodeFinalizeReply},
		{nodeFinalizeReply, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

func doneOr(next string) *compose.GraphBranch {
	return compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Done {
				return nodeFinalizeReply, nil
			}
			return next, nil
		},
		map[string]bool{
			next:              true,
			nodeFinalizeReply: true,
		},
	)
}
