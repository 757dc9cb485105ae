package registry

import "github.com/dukex/scriptorium/pkg/models"

// Identifiers of the built-in actions.
const (
	ActionClean           = "clean"
	ActionUppercase       = "uppercase"
	ActionLowercase       = "lowercase"
	ActionTrim            = "trim"
	ActionTranscriptFix   = "transcript_fix"
	ActionProofread       = "proofread"
	ActionTranslate       = "translate"
	ActionRewriteFormal   = "rewrite_formal"
	ActionSimplify        = "simplify"
	ActionSummaryExec     = "summary_exec"
	ActionKeywords        = "keywords"
	ActionEntities        = "entities"
	ActionSentiment       = "sentiment"
	ActionOutline         = "outline"
	ActionMarkdown        = "format_markdown"
	ActionHTML            = "format_html"
	ActionSocialPost      = "social_post"
	ActionGlossaryExtract = "glossary"
)

// DefaultActions returns the built-in catalogue.
func DefaultActions() []models.ActionDefinition {
	return []models.ActionDefinition{
		{
			ID:          ActionClean,
			Label:       "Clean Markup",
			Category:    models.CategoryProcessing,
			Icon:        "sparkles",
			Description: "Strips HTML and markup, drops scripts and styles, collapses whitespace",
		},
		{
			ID:          ActionUppercase,
			Label:       "Uppercase",
			Category:    models.CategoryProcessing,
			Icon:        "type",
			Description: "Converts the text to upper case",
		},
		{
			ID:          ActionLowercase,
			Label:       "Lowercase",
			Category:    models.CategoryProcessing,
			Icon:        "type",
			Description: "Converts the text to lower case",
		},
		{
			ID:          ActionTrim,
			Label:       "Trim",
			Category:    models.CategoryProcessing,
			Icon:        "scissors",
			Description: "Removes leading and trailing whitespace from every line",
		},
		{
			ID:          ActionTranscriptFix,
			Label:       "Fix Transcript",
			Category:    models.CategoryProcessing,
			Icon:        "mic",
			Description: "Repairs punctuation, casing and filler words of an automatic transcription",
			Prompt:      "Fix punctuation and casing of this transcript and remove filler words. Keep the wording otherwise unchanged. Return only the corrected transcript.",
		},
		{
			ID:          ActionProofread,
			Label:       "Proofread",
			Category:    models.CategoryEditorial,
			Icon:        "check",
			Description: "Corrects spelling and grammar without changing the meaning",
			Prompt:      "Proofread the following text. Correct spelling, grammar and punctuation only. Return only the corrected text.",
		},
		{
			ID:          ActionTranslate,
			Label:       "Translate",
			Category:    models.CategoryEditorial,
			Icon:        "languages",
			Description: "Translates the text; the custom prompt names the target language",
			Prompt:      "Translate the following text into English, preserving formatting. Return only the translation.",
		},
		{
			ID:          ActionRewriteFormal,
			Label:       "Formal Rewrite",
			Category:    models.CategoryEditorial,
			Icon:        "briefcase",
			Description: "Rewrites the text in a formal, professional register",
			Prompt:      "Rewrite the following text in a formal, professional tone. Return only the rewritten text.",
		},
		{
			ID:          ActionSimplify,
			Label:       "Simplify",
			Category:    models.CategoryEditorial,
			Icon:        "feather",
			Description: "Rewrites the text in plain language",
			Prompt:      "Rewrite the following text in plain language a twelve year old understands. Return only the rewritten text.",
		},
		{
			ID:          ActionSummaryExec,
			Label:       "Executive Summary",
			Category:    models.CategoryAnalysis,
			Icon:        "file-text",
			Description: "Produces a short executive summary",
			Prompt:      "Write an executive summary of the following text in at most five sentences.",
		},
		{
			ID:          ActionKeywords,
			Label:       "Keywords",
			Category:    models.CategoryAnalysis,
			Icon:        "tag",
			Description: "Extracts the main keywords, one per line",
			Prompt:      "List the ten most important keywords of the following text, one per line, without numbering.",
		},
		{
			ID:          ActionEntities,
			Label:       "Named Entities",
			Category:    models.CategoryAnalysis,
			Icon:        "users",
			Description: "Extracts people, organisations and places",
			Prompt:      "Extract the people, organisations and places mentioned in the following text as a bulleted list grouped by type.",
		},
		{
			ID:          ActionSentiment,
			Label:       "Sentiment",
			Category:    models.CategoryAnalysis,
			Icon:        "activity",
			Description: "Classifies the overall sentiment with a one line justification",
			Prompt:      "Classify the sentiment of the following text as positive, neutral or negative and justify it in one line.",
		},
		{
			ID:          ActionGlossaryExtract,
			Label:       "Glossary",
			Category:    models.CategoryAnalysis,
			Icon:        "book",
			Description: "Builds a term glossary for translation memory",
			Prompt:      "Extract domain-specific terms from the following text as 'term: definition' lines.",
		},
		{
			ID:          ActionOutline,
			Label:       "Outline",
			Category:    models.CategoryOutput,
			Icon:        "list",
			Description: "Turns the text into a hierarchical outline",
			Prompt:      "Turn the following text into a hierarchical outline using nested bullet points.",
		},
		{
			ID:          ActionMarkdown,
			Label:       "Markdown",
			Category:    models.CategoryOutput,
			Icon:        "hash",
			Description: "Formats the text as a structured Markdown document",
			Prompt:      "Format the following text as a well structured Markdown document with headings. Return only Markdown.",
		},
		{
			ID:          ActionHTML,
			Label:       "HTML",
			Category:    models.CategoryOutput,
			Icon:        "code",
			Description: "Formats the text as semantic HTML",
			Prompt:      "Format the following text as semantic HTML body content. Return only HTML.",
		},
		{
			ID:          ActionSocialPost,
			Label:       "Social Post",
			Category:    models.CategoryOutput,
			Icon:        "send",
			Description: "Condenses the text into a short social media post",
			Prompt:      "Condense the following text into a social media post of at most 280 characters.",
		},
	}
}

// RegisterDefaultActions registers the built-in catalogue.
func (r *Registry) RegisterDefaultActions() {
	for _, action := range DefaultActions() {
		if err := r.Register(action); err != nil {
			panic(err)
		}
	}
}
