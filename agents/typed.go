package agents

import (
	"context"
	"strings"

	"github.com/effective-security/goagent/encoding"
	"github.com/effective-security/goagent/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// InvokeTyped runs the agent and parses the final text answer into O.
// The output schema instructions of the requested encoding mode are appended
// to the system prompt, so the model knows the expected shape.
func InvokeTyped[O any](ctx context.Context, a *Agent, input string, mode encoding.Mode, options ...Option) (*O, *Response, error) {
	var out O
	parser, err := encoding.NewTypedOutputParser(out, mode)
	if err != nil {
		return nil, nil, err
	}
	return InvokeWithParser(ctx, a, input, parser, options...)
}

// InvokeWithParser runs the agent and parses the final text answer with the
// given parser.
func InvokeWithParser[O any](ctx context.Context, a *Agent, input string, parser encoding.OutputParser[O], options ...Option) (*O, *Response, error) {
	outputSchema := strings.TrimRight(parser.GetFormatInstructions(), "\n")
	if outputSchema != "" {
		options = append(options, WithExtraInstructions("# OUTPUT SCHEMA\n"+outputSchema))
	}

	resp, err := a.Invoke(ctx, input, options...)
	if err != nil {
		return nil, nil, err
	}
	if resp.IsToolCall {
		return nil, resp, nil
	}

	final, err := parser.Parse(resp.Text)
	if err != nil {
		metricskey.StatsAgentParseErrors.IncrCounter(1, a.name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.name,
			"status", "failed_to_parse_llm_response",
			"err", err.Error(),
			"output_parser", parser.Type(),
			"result", slices.StringUpto(resp.Text, 256),
		)
		return nil, resp, err
	}
	return final, resp, nil
}
