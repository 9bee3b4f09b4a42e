package tools

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultServerName = "local"
	maxXMLSize        = 1024 * 1024 // 1MB limit for XML tool calls
)

var toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

// ampersandEntityRegex matches ampersands that already start an XML entity:
// &amp; &lt; &gt; &quot; &apos; &#123; &#xAB;
var ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)

// ParseToolCall extracts the first <tool> element from text. It returns
// the call and the text with the call removed.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	loc := toolRegex.FindStringIndex(text)
	if loc == nil {
		return nil, text, fmt.Errorf("no tool call found in text")
	}
	toolXML := strings.TrimSpace(text[loc[0]:loc[1]])

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(toolXML), &call); err != nil {
		snippet := toolXML
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, text, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, snippet)
	}
	if call.ToolName == "" {
		return nil, text, fmt.Errorf("tool_name is required in tool call")
	}
	if call.ServerName == "" {
		call.ServerName = defaultServerName
	}

	remaining := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return &call, remaining, nil
}

// UnmarshalXMLWithFallback unmarshals data, retrying once with bare
// ampersands escaped. Paths and URLs in arguments often carry raw &.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands replaces bare & with &amp;, leaving existing
// entities alone.
func escapeUnescapedAmpersands(data []byte) []byte {
	text := string(data)

	entityStarts := make(map[int]bool)
	for _, match := range ampersandEntityRegex.FindAllStringIndex(text, -1) {
		entityStarts[match[0]] = true
	}

	var result strings.Builder
	result.Grow(len(text) + 20)
	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityStarts[i] {
			result.WriteString("&amp;")
			continue
		}
		result.WriteByte(text[i])
	}
	return []byte(result.String())
}
