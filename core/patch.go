package core

// Patch is a partial card update. Nil fields are left untouched.
type Patch struct {
	Name *string `json:"name,omitempty"`

	Theme           *string `json:"theme,omitempty"`
	CustomTheme     *string `json:"customTheme,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`

	Recipient         *string   `json:"recipient,omitempty"`
	RecipientPosition *Position `json:"recipientPosition,omitempty"`
	Sender            *string   `json:"sender,omitempty"`
	SenderLabel       *string   `json:"senderLabel,omitempty"`
	SenderPosition    *Position `json:"senderPosition,omitempty"`

	EnglishCaption         *string   `json:"englishCaption,omitempty"`
	EnglishCaptionPosition *Position `json:"englishCaptionPosition,omitempty"`
	EnglishCaptionScale    *float64  `json:"englishCaptionScale,omitempty"`

	Message       *string `json:"message,omitempty"`
	MessageLength *string `json:"messageLength,omitempty"`

	ImageURL          *string   `json:"imageUrl,omitempty"`
	Font              *string   `json:"font,omitempty"`
	FontSize          *float64  `json:"fontSize,omitempty"`
	Alignment         *string   `json:"alignment,omitempty"`
	ImageStyle        *string   `json:"imageStyle,omitempty"`
	ImageSubject      *string   `json:"imageSubject,omitempty"`
	ImageWidth        *float64  `json:"imageWidth,omitempty"`
	ImageHeight       *float64  `json:"imageHeight,omitempty"`
	ImagePosition     *Position `json:"imagePosition,omitempty"`
	ImageMask         *string   `json:"imageMask,omitempty"`
	CustomImageRadius *float64  `json:"customImageRadius,omitempty"`
	ImageBorder       *string   `json:"imageBorder,omitempty"`

	Design            *string   `json:"design,omitempty"`
	MessageBoxStyle   *string   `json:"messageBoxStyle,omitempty"`
	MessagePosition   *Position `json:"messagePosition,omitempty"`
	MessageBoxWidth   *float64  `json:"messageBoxWidth,omitempty"`
	MessageBoxPadding *float64  `json:"messageBoxPadding,omitempty"`

	StickerSet         *[]string     `json:"stickerSet,omitempty"`
	CustomStickerTopic *string       `json:"customStickerTopic,omitempty"`
	Decorations        *[]Decoration `json:"decorations,omitempty"`
}

// Apply merges p into c. Provided fields replace, all others are retained.
// Slices are copied so the patch and the card never share backing arrays.
func (c *Card) Apply(p Patch) {
	setString(&c.Name, p.Name)
	setString(&c.Theme, p.Theme)
	setString(&c.CustomTheme, p.CustomTheme)
	setString(&c.BackgroundColor, p.BackgroundColor)
	setString(&c.Recipient, p.Recipient)
	setPosition(&c.RecipientPosition, p.RecipientPosition)
	setString(&c.Sender, p.Sender)
	setString(&c.SenderLabel, p.SenderLabel)
	setPosition(&c.SenderPosition, p.SenderPosition)
	setString(&c.EnglishCaption, p.EnglishCaption)
	setPosition(&c.EnglishCaptionPosition, p.EnglishCaptionPosition)
	setFloat(&c.EnglishCaptionScale, p.EnglishCaptionScale)
	setString(&c.Message, p.Message)
	setString(&c.MessageLength, p.MessageLength)
	setString(&c.ImageURL, p.ImageURL)
	setString(&c.Font, p.Font)
	setFloat(&c.FontSize, p.FontSize)
	setString(&c.Alignment, p.Alignment)
	setString(&c.ImageStyle, p.ImageStyle)
	setString(&c.ImageSubject, p.ImageSubject)
	setFloat(&c.ImageWidth, p.ImageWidth)
	setFloat(&c.ImageHeight, p.ImageHeight)
	setPosition(&c.ImagePosition, p.ImagePosition)
	setString(&c.ImageMask, p.ImageMask)
	setFloat(&c.CustomImageRadius, p.CustomImageRadius)
	setString(&c.ImageBorder, p.ImageBorder)
	setString(&c.Design, p.Design)
	setString(&c.MessageBoxStyle, p.MessageBoxStyle)
	setPosition(&c.MessagePosition, p.MessagePosition)
	setFloat(&c.MessageBoxWidth, p.MessageBoxWidth)
	setFloat(&c.MessageBoxPadding, p.MessageBoxPadding)
	setString(&c.CustomStickerTopic, p.CustomStickerTopic)

	if p.StickerSet != nil {
		c.StickerSet = append([]string{}, (*p.StickerSet)...)
	}
	if p.Decorations != nil {
		c.Decorations = append([]Decoration{}, (*p.Decorations)...)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setPosition(dst *Position, v *Position) {
	if v != nil {
		*dst = *v
	}
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Float returns a pointer to f, for building patches.
func Float(f float64) *float64 { return &f }

// At returns a pointer to a Position, for building patches.
func At(x, y float64) *Position { return &Position{X: x, Y: y} }
