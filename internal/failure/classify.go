package failure

import (
	"fmt"
	"strings"
)

const (
	providerErrorPrefix = "Inference provider error: "

	providerUnavailableTemplate = "No Inference Provider available for the requested model. " +
		"This means your provider token cannot use that hosted model. Options:\n" +
		" • Deploy the model as a dedicated Inference Endpoint for your account (recommended for %s),\n" +
		" • Use a smaller publicly-hosted model (e.g., gpt2 or bloom-560m) by changing MODEL_NAME,\n" +
		" • Or run a local inference server and point PROVIDER_BASE_URL to it.\n" +
		"\n\n(Original error: %s)"
)

var providerUnavailableMarkers = []string{
	"No Inference Provider",
	"Auto selected provider: undefined",
}

// Classifier maps provider stream errors to reports. Matching is a
// case-sensitive substring check on the error text.
type Classifier struct {
	model string
}

func NewClassifier(model string) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(err error) Report {
	msg := message(err)

	for _, marker := range providerUnavailableMarkers {
		if strings.Contains(msg, marker) {
			return newReport(ProviderUnavailable, fmt.Sprintf(providerUnavailableTemplate, c.model, msg))
		}
	}

	return newReport(ProviderError, providerErrorPrefix+msg)
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
