package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287
	ColorDanger  = 0xED4245
	ColorError   = 0xED4245
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x3498DB
	ColorTeamA   = 0x3498DB
	ColorTeamB   = 0xE67E22
)

// UI constants
const (
	MaxButtonsPerRow = 5
	MaxActionRows    = 5
	MaxButtonLabel   = 80
)
