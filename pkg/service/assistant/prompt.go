package assistant

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/live_system.md
var liveSystemPromptTmpl string

//go:embed prompt/extract_operations.md
var extractOperationsTmpl string

type exchange struct {
	Role string
	Text string
}

type systemPromptData struct {
	Event          *model.Event
	Process        *model.ProcessContext
	ProcessPercent int
	ProcessDone    int
	ProcessTotal   int
	History        []exchange
	Language       string
}

func buildSystemPrompt(data systemPromptData) (string, error) {
	if data.Process != nil {
		data.ProcessDone, data.ProcessTotal = data.Process.Progress()
		data.ProcessPercent = data.Process.ProgressPercent()
	}

	tmpl, err := template.New("live_system").Parse(liveSystemPromptTmpl)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse system prompt template")
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt")
	}
	return sb.String(), nil
}

type extractPromptData struct {
	Process *model.ProcessContext
	Reply   string
}

func buildExtractPrompt(data extractPromptData) (string, error) {
	tmpl, err := template.New("extract_operations").Parse(extractOperationsTmpl)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse extraction prompt template")
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", goerr.Wrap(err, "failed to render extraction prompt")
	}
	return sb.String(), nil
}
