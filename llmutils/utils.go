package llmutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/effective-security/goagent/pkg/llms"
	"gopkg.in/yaml.v3"
)

// CleanJSON returns JSON by trimming prefixes and postfixes,
// this is more useful than TrimBackticks,
// as LLM can reply like,
// `Here you go: {json}`
func CleanJSON(bs []byte) []byte {
	trimmedPrefix := trimPrefixBeforeJSON(bs)
	trimmedJSON := trimPostfixAfterJSON(trimmedPrefix)
	return trimmedJSON
}

// Removes any prefixes before the JSON (like "Sure, here you go:")
func trimPrefixBeforeJSON(bs []byte) []byte {
	startObject := bytes.IndexByte(bs, '{')
	startArray := bytes.IndexByte(bs, '[')

	var start int
	if startObject == -1 && startArray == -1 {
		return bs // No opening brace or bracket found, return the original string
	} else if startObject == -1 {
		start = startArray
	} else if startArray == -1 {
		start = startObject
	} else {
		start = min(startObject, startArray)
	}

	return bs[start:]
}

// Removes any postfixes after the JSON
func trimPostfixAfterJSON(bs []byte) []byte {
	endObject := bytes.LastIndexByte(bs, '}')
	endArray := bytes.LastIndexByte(bs, ']')

	var end int
	if endObject == -1 && endArray == -1 {
		return bs // No closing brace or bracket found, return the original string
	} else if endObject == -1 {
		end = endArray
	} else if endArray == -1 {
		end = endObject
	} else {
		end = max(endObject, endArray)
	}

	return bs[:end+1]
}

// TrimBackticks removes ```json or ```
func TrimBackticks(text string) string {
	return string(BytesTrimBackticks([]byte(text)))
}

var backtick = []byte("```")

// BytesTrimBackticks removes ```json or ```
func BytesTrimBackticks(bs []byte) []byte {
	size := len(bs)
	startIndex := bytes.Index(bs, backtick)
	if startIndex == -1 {
		// If the start marker is not found, return the original string directly
		return bs
	}
	startIndex += len(backtick)

	for i := startIndex; i < size && bs[i] != '{' && bs[i] != '['; i++ {
		if bs[i] == '\n' {
			startIndex = i + 1
			break
		}
	}

	contentAfterStart := bs[startIndex:]

	endIndex := bytes.LastIndex(contentAfterStart, backtick)
	if endIndex == -1 {
		return contentAfterStart
	}

	return bytes.TrimSpace(contentAfterStart[:endIndex])
}

// StripComments removes <!--  --> comments from the LLM output
func StripComments(text string) string {
	before, after, ok := strings.Cut(text, "<!--")
	if ok {
		_, after2, ok := strings.Cut(after, "-->")
		if ok {
			if len(after2) > 1 && after2[0] == '\n' {
				after2 = after2[1:]
			}
			return before + after2
		}
	}
	// return as is
	return text
}

// RemoveAllComments removes all <!--  --> comments from the LLM output
func RemoveAllComments(input string) string {
	result := input
	for {
		cleaned := StripComments(result)
		if cleaned == result {
			return cleaned
		}
		result = cleaned
	}
}

func JSONIndent(body string) string {
	var buf bytes.Buffer
	_ = json.Indent(&buf, []byte(body), "", "\t")
	return buf.String()
}

func ToJSON(val any) string {
	js, _ := json.Marshal(val)
	return string(js)
}

func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

func ToYAML(val any) string {
	js, _ := yaml.Marshal(val)
	return string(js)
}

func BackticksJSON(js string) string {
	return "\n```json\n" + strings.TrimSpace(js) + "\n```\n"
}

func BackticksYAML(js string) string {
	return "\n```yaml\n" + strings.TrimSpace(js) + "\n```\n"
}

type Stringer interface {
	String() string
}

// Stringify coerces a tool or parser value to a provider-transmissible string.
func Stringify(s any) string {
	if v, ok := s.(Stringer); ok {
		return v.String()
	}
	if v, ok := s.(string); ok {
		return v
	}
	js, _ := json.MarshalIndent(s, "", "\t")
	return BackticksJSON(string(js))
}

// PrintMessages is a debugging helper for conversation history.
func PrintMessages(w io.Writer, msgs []llms.Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: ", strings.ToUpper(string(m.Role)))
		fmt.Fprintln(w, m.GetContent())
	}
}

// CountMessagesContentSize counts the size of the content in the messages
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size uint64
	for _, m := range msgs {
		size += uint64(len(m.Role))
		size += uint64(len(m.Content))
		for _, tc := range m.ToolCalls {
			size += uint64(len(tc.ID))
			size += uint64(len(tc.Name))
			size += uint64(len(tc.Arguments))
		}
		for _, tr := range m.ToolResults {
			size += uint64(len(tr.CallID))
			size += uint64(len(tr.Name))
			size += uint64(len(tr.Content))
		}
	}
	return size
}

// CountResponseContentSize counts the size of the content in the reply
func CountResponseContentSize(resp *llms.ChatResponse) uint64 {
	size := uint64(len(resp.Content))
	for _, tc := range resp.ToolCalls {
		size += uint64(len(tc.ID))
		size += uint64(len(tc.Name))
		size += uint64(len(tc.Arguments))
	}
	return size
}

// FindLastUserQuestion returns the text of the most recent user message.
func FindLastUserQuestion(messages []llms.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llms.RoleUser && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

// EnsureEndsWithNewline ensures the message ends with a newline,
// it also removes any extra leading and trailing spaces.
func EnsureEndsWithNewline(s string) string {
	s = strings.TrimSpace(s)
	c := len(s)
	if c == 0 {
		return s
	}
	if s[c-1] != '\n' {
		return s + "\n"
	}
	return s
}
