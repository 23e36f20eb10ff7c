package decompose

import (
	"strings"

	"github.com/gary-zero/hierplan/models"
)

// toolTable maps intent keywords to recommended capabilities, checked in
// order. First match wins.
var toolTable = []struct {
	keywords []string
	tool     models.Tool
}{
	{[]string{"search", "look up", "find sources", "discover"}, models.ToolSearchEngine},
	{[]string{"fetch", "retrieve", "scrape", "webpage", "url", "download"}, models.ToolWebpageContent},
	{[]string{"code", "script", "run", "execute", "compile", "build", "test"}, models.ToolCodeExecution},
	{[]string{"summarize", "synthesize", "analyze", "explain", "research"}, models.ToolKnowledge},
	{[]string{"respond", "answer", "present", "deliver"}, models.ToolResponse},
}

// ToolFor picks a recommended capability for a piece of work by matching its
// text against the static tool table. The hint is advisory: ToolNone means
// the downstream executor chooses.
func ToolFor(text string) models.Tool {
	lower := strings.ToLower(text)
	for _, entry := range toolTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.tool
			}
		}
	}
	return models.ToolNone
}
