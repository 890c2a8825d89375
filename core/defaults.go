package core

// Defaults for a freshly created card.
const (
	DefaultTheme             = "christmas"
	DefaultBackgroundColor   = "auto"
	DefaultSenderLabel       = "From"
	DefaultCaption           = "Merry Christmas"
	DefaultMessageLength     = "medium"
	DefaultFont              = "Noto Serif KR"
	DefaultFontSize          = 16
	DefaultAlignment         = "text-center"
	DefaultImageWidth        = 100
	DefaultImageHeight       = 300
	DefaultImageMask         = "none"
	DefaultCustomImageRadius = 24
	DefaultImageBorder       = "none"
	DefaultDesign            = "rectangle"
	DefaultMessageBoxStyle   = "none"
	DefaultMessageBoxWidth   = 90
	DefaultMessageBoxPadding = 24
)

// NewCard returns a card populated with the editor defaults.
// imageStyle is left to the caller since it comes from the style catalog.
func NewCard() *Card {
	return &Card{
		Theme:               DefaultTheme,
		BackgroundColor:     DefaultBackgroundColor,
		SenderLabel:         DefaultSenderLabel,
		EnglishCaption:      DefaultCaption,
		EnglishCaptionScale: 1,
		MessageLength:       DefaultMessageLength,
		Font:                DefaultFont,
		FontSize:            DefaultFontSize,
		Alignment:           DefaultAlignment,
		ImageWidth:          DefaultImageWidth,
		ImageHeight:         DefaultImageHeight,
		ImageMask:           DefaultImageMask,
		CustomImageRadius:   DefaultCustomImageRadius,
		ImageBorder:         DefaultImageBorder,
		Design:              DefaultDesign,
		MessageBoxStyle:     DefaultMessageBoxStyle,
		MessageBoxWidth:     DefaultMessageBoxWidth,
		MessageBoxPadding:   DefaultMessageBoxPadding,
		StickerSet:          []string{},
		Decorations:         []Decoration{},
	}
}
