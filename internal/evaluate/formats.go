package evaluate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gary-zero/hierplan/models"
)

var (
	htmlTagRe      = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	markdownLinkRe = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
)

// codeKeywords are language markers accepted when no fence is present.
var codeKeywords = []string{
	"func ", "def ", "class ", "import ", "package ", "return ",
	"var ", "const ", "function ", "#include",
}

// matchesFormat validates the rough shape of the output against the expected
// format. These are structural sniff tests, not full parsers (except JSON).
func matchesFormat(output string, format models.OutputFormat) bool {
	switch format {
	case models.FormatJSON:
		return json.Valid([]byte(strings.TrimSpace(output)))
	case models.FormatMarkdown:
		return looksLikeMarkdown(output)
	case models.FormatHTML:
		return htmlTagRe.MatchString(output)
	case models.FormatCode:
		return looksLikeCode(output)
	}
	return false
}

func looksLikeMarkdown(output string) bool {
	if markdownLinkRe.MatchString(output) {
		return true
	}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"),
			strings.HasPrefix(trimmed, "- "),
			strings.HasPrefix(trimmed, "* "),
			strings.HasPrefix(trimmed, "> "):
			return true
		}
	}
	return strings.Contains(output, "**") || strings.Contains(output, "__")
}

func looksLikeCode(output string) bool {
	if strings.Contains(output, "```") {
		return true
	}
	for _, kw := range codeKeywords {
		if strings.Contains(output, kw) {
			return true
		}
	}
	return false
}
