package service

const (
	systemPrompt = "You are an assistant that explains code clearly and simply. " +
		"Break it down step-by-step, describe important lines, and summarize the overall behavior. " +
		"Give time/space complexity if you can, and show a short example if helpful."

	userPromptPrefix = "Please explain the following code:"

	// EmptyExplanation replaces a stream that produced no text.
	EmptyExplanation = "⚠️ AI returned an empty explanation. Try a smaller snippet or a different model."
)
