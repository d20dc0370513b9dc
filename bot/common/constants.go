package common

// Embed colours
const (
	ColorPrimary = 0xFCD207 // CodinGame yellow
	ColorSuccess = 0x2ECC71 // Green
	ColorDanger  = 0xE74C3C // Red
	ColorError   = ColorDanger
	ColorInfo    = 0x3498DB // Blue
	ColorWarning = 0xF1C40F // Gold
	ColorOrange  = 0xE67E22
)

// Discord limits
const (
	MaxEmbedDescription = 4096
	MaxFieldValue       = 1024
	MaxMessageContent   = 2000
)

// BulkDeleteMaxAge is how old a message may be and still be bulk deleted
const BulkDeleteMaxAge = 14 * 24 * 60 * 60 // seconds
