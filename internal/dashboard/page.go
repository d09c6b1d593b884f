package dashboard

import (
	"fmt"
	"html/template"
	"strings"
)

type pageData struct {
	Status    StatusResponse
	Articles  []ArticleView
	LogLines  []string
	LogOffset int64
	Stages    []string
	SiteURL   string
	NeedToken bool
}

var templateFuncs = template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"truncate": func(n int, s string) string {
		runes := []rune(strings.TrimSpace(s))
		if len(runes) <= n {
			return string(runes)
		}
		return string(runes[:n]) + "…"
	},
	"stageLabel": func(stage string) string {
		switch stage {
		case "collect":
			return "1. Collect articles"
		case "analyze":
			return "2. Analyze with AI"
		case "report":
			return "3. Generate report"
		case "run":
			return "Run all steps"
		default:
			return stage
		}
	},
	"joinLines": func(lines []string) string { return strings.Join(lines, "\n") },
}
