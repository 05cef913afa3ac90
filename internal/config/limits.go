package config

const (
	// MaxSessionTitleLength is the maximum length for chat session titles.
	MaxSessionTitleLength = 255

	// MaxDerivedTitleRunes bounds titles derived from the first message.
	MaxDerivedTitleRunes = 40

	// MaxMessageLength is the maximum length of a user message, in bytes.
	MaxMessageLength = 32_000

	// MaxAttachmentBytes caps a single file sent with a message.
	MaxAttachmentBytes = 10 << 20

	// MaxWebhookResponseBytes caps how much of a webhook reply is read.
	MaxWebhookResponseBytes = 4 << 20

	// MaxPromptTitleLength is the maximum length of a prompt title.
	MaxPromptTitleLength = 200

	// MaxPromptDescriptionLength is the maximum length of a prompt description.
	MaxPromptDescriptionLength = 1_000

	// MaxPromptTextLength is the maximum length of a prompt's text.
	MaxPromptTextLength = 20_000

	// MaxPromptTagLength is the maximum length of a prompt tag.
	MaxPromptTagLength = 50
)
