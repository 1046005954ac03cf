package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsLLMMessagesSent is base for counter metric for total messages sent to LLM
	StatsLLMMessagesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_messages_sent",
		Help:         "stats_llm_messages_sent provides total messages sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_sent",
		Help:         "stats_llm_bytes_sent provides total bytes sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_received",
		Help:         "stats_llm_bytes_received provides total bytes received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMBytesTotal = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_total",
		Help:         "stats_llm_bytes_total provides total bytes sent and received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMTotalTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_total_tokens",
		Help:         "stats_llm_total_tokens provides total tokens sent and received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsAgentCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_calls_succeeded",
		Help:         "stats_agent_calls_succeeded provides total agent calls succeeded",
		RequiredTags: []string{"agent"},
	}

	StatsAgentCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_calls_failed",
		Help:         "stats_agent_calls_failed provides total agent calls failed",
		RequiredTags: []string{"agent"},
	}

	StatsAgentIterationsExceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_iterations_exceeded",
		Help:         "stats_agent_iterations_exceeded provides total agent runs terminated by the iteration limit",
		RequiredTags: []string{"agent"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsAgentParseErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_parse_errors",
		Help:         "stats_agent_parse_errors provides total agent output parse errors",
		RequiredTags: []string{"agent"},
	}
)

// Perf
var (
	PerfAgentRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_run",
		Help:         "perf_agent_run provides duration of agent run",
		RequiredTags: []string{"agent"},
	}

	PerfLLMCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_llm_call",
		Help:         "perf_llm_call provides duration of one LLM round trip",
		RequiredTags: []string{"agent", "model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentRun,
	&PerfLLMCall,
	&PerfToolCall,
	&StatsAgentCallsFailed,
	&StatsAgentCallsSucceeded,
	&StatsAgentIterationsExceeded,
	&StatsAgentParseErrors,
	&StatsLLMBytesReceived,
	&StatsLLMBytesSent,
	&StatsLLMBytesTotal,
	&StatsLLMInputTokens,
	&StatsLLMMessagesSent,
	&StatsLLMOutputTokens,
	&StatsLLMTotalTokens,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}
