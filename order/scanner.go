package order

import "strings"

// CompletionMarker is the literal token the persona prompt instructs the model
// to append after a final order payload. It must match the prompt byte-for-byte.
const CompletionMarker = "[MOSTRAR_FACTURA]"

// PayloadExtractor locates the candidate order payload inside a model reply.
// Implementations return the candidate substring and whether one was found.
type PayloadExtractor interface {
	Extract(reply string) (string, bool)
}

// FenceExtractor parses strictly between ```json fences. It is the preferred
// strategy: the prompt contract can guarantee unambiguous delimiters, which the
// brace heuristic cannot.
type FenceExtractor struct{}

func (FenceExtractor) Extract(reply string) (string, bool) {
	const open = "```json"
	start := strings.Index(reply, open)
	if start < 0 {
		return "", false
	}
	rest := reply[start+len(open):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	candidate := strings.TrimSpace(rest[:end])
	if !strings.Contains(candidate, "{") {
		return "", false
	}
	return candidate, true
}

// BraceExtractor is the compatibility shim: the candidate is the inclusive
// substring between the first '{' and the last '}' in the reply. Nested or
// multiple blocks are not disambiguated; only one candidate is ever produced.
type BraceExtractor struct{}

func (BraceExtractor) Extract(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return "", false
	}
	return reply[start : end+1], true
}

// Scanner decides whether a model reply is terminal and, if so, locates the
// candidate payload. It is a pure text scan with no side effects.
type Scanner struct {
	marker     string
	extractors []PayloadExtractor
}

// NewScanner creates a scanner with the given extraction strategies, tried in
// order until one yields a candidate.
func NewScanner(marker string, extractors ...PayloadExtractor) *Scanner {
	return &Scanner{marker: marker, extractors: extractors}
}

// NewDefaultScanner uses the completion marker with strict-fence extraction,
// falling back to the brace heuristic.
func NewDefaultScanner() *Scanner {
	return NewScanner(CompletionMarker, FenceExtractor{}, BraceExtractor{})
}

// Scan reports whether the reply contains the completion marker and returns
// the candidate payload if any. An empty payload with terminal=true means the
// marker was present but no payload could be located. A non-terminal reply is
// ordinary conversation, not an error.
func (s *Scanner) Scan(reply string) (payload string, terminal bool) {
	if !strings.Contains(reply, s.marker) {
		return "", false
	}
	for _, ex := range s.extractors {
		if candidate, ok := ex.Extract(reply); ok {
			return candidate, true
		}
	}
	return "", true
}
