// Package catalog holds the static option lists the editor offers: themes,
// fonts, image styles, card designs, message box styles, image masks,
// image borders, message lengths and alignments.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"cardstudio/core"

	"gopkg.in/yaml.v3"
)

// OtherTheme is the theme whose label comes from the card's customTheme.
const OtherTheme = "other"

// FallbackCustomTheme names the occasion when "other" is chosen without a custom theme.
const FallbackCustomTheme = "a special day"

// ErrUnknownOption is returned when a value is not in its catalog.
var ErrUnknownOption = errors.New("unknown option")

//go:embed catalog.yaml
var catalogYAML []byte

type (
	Option struct {
		Value string `yaml:"value" json:"value"`
		Label string `yaml:"label" json:"label"`
	}

	Theme struct {
		Value   string `yaml:"value" json:"value"`
		Label   string `yaml:"label" json:"label"`
		Caption string `yaml:"caption" json:"caption"`
		Class   string `yaml:"class" json:"class"`
	}

	Length struct {
		Value       string `yaml:"value" json:"value"`
		Label       string `yaml:"label" json:"label"`
		Instruction string `yaml:"instruction" json:"-"`
	}

	StyleGroup struct {
		Group  string   `yaml:"group" json:"group"`
		Styles []Option `yaml:"styles" json:"styles"`
	}

	// Catalog is the full set of option lists. It is read-only after Parse.
	Catalog struct {
		Themes           []Theme      `yaml:"themes" json:"themes"`
		Fonts            []Option     `yaml:"fonts" json:"fonts"`
		ImageStyles      []StyleGroup `yaml:"imageStyles" json:"imageStyles"`
		Designs          []Option     `yaml:"designs" json:"designs"`
		MessageBoxStyles []Option     `yaml:"messageBoxStyles" json:"messageBoxStyles"`
		ImageMasks       []Option     `yaml:"imageMasks" json:"imageMasks"`
		ImageBorders     []Option     `yaml:"imageBorders" json:"imageBorders"`
		MessageLengths   []Length     `yaml:"messageLengths" json:"messageLengths"`
		Alignments       []Option     `yaml:"alignments" json:"alignments"`

		index map[string]map[string]bool
	}
)

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse reads a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Themes) == 0 || len(c.Fonts) == 0 || len(c.ImageStyles) == 0 {
		return nil, errors.New("parse catalog: themes, fonts and image styles are required")
	}

	c.index = map[string]map[string]bool{}
	add := func(kind, value string) {
		if c.index[kind] == nil {
			c.index[kind] = map[string]bool{}
		}
		c.index[kind][value] = true
	}
	for _, t := range c.Themes {
		add("theme", t.Value)
	}
	for _, o := range c.Fonts {
		add("font", o.Value)
	}
	for _, o := range c.AllImageStyles() {
		add("imageStyle", o.Value)
	}
	for _, o := range c.Designs {
		add("design", o.Value)
	}
	for _, o := range c.MessageBoxStyles {
		add("messageBoxStyle", o.Value)
	}
	for _, o := range c.ImageMasks {
		add("imageMask", o.Value)
	}
	for _, o := range c.ImageBorders {
		add("imageBorder", o.Value)
	}
	for _, l := range c.MessageLengths {
		add("messageLength", l.Value)
	}
	for _, o := range c.Alignments {
		add("alignment", o.Value)
	}
	return &c, nil
}

func (c *Catalog) has(kind, value string) bool {
	return c.index[kind][value]
}

func (c *Catalog) HasTheme(v string) bool           { return c.has("theme", v) }
func (c *Catalog) HasFont(v string) bool            { return c.has("font", v) }
func (c *Catalog) HasImageStyle(v string) bool      { return c.has("imageStyle", v) }
func (c *Catalog) HasDesign(v string) bool          { return c.has("design", v) }
func (c *Catalog) HasMessageBoxStyle(v string) bool { return c.has("messageBoxStyle", v) }
func (c *Catalog) HasImageMask(v string) bool       { return c.has("imageMask", v) }
func (c *Catalog) HasImageBorder(v string) bool     { return c.has("imageBorder", v) }
func (c *Catalog) HasMessageLength(v string) bool   { return c.has("messageLength", v) }
func (c *Catalog) HasAlignment(v string) bool       { return c.has("alignment", v) }

// Theme looks up a theme by value.
func (c *Catalog) Theme(value string) (Theme, bool) {
	for _, t := range c.Themes {
		if t.Value == value {
			return t, true
		}
	}
	return Theme{}, false
}

// ThemeClass returns the presentation classes for theme, falling back to
// the "other" theme.
func (c *Catalog) ThemeClass(theme string) string {
	if t, ok := c.Theme(theme); ok {
		return t.Class
	}
	t, _ := c.Theme(OtherTheme)
	return t.Class
}

// EffectiveTheme is the occasion named in prompts: the theme label, or the
// custom theme when "other" is chosen.
func (c *Catalog) EffectiveTheme(theme, customTheme string) string {
	if theme == OtherTheme {
		if customTheme != "" {
			return customTheme
		}
		return FallbackCustomTheme
	}
	if t, ok := c.Theme(theme); ok {
		return t.Label
	}
	return theme
}

// LengthInstruction returns the prompt instruction for a message length,
// defaulting to the medium tier.
func (c *Catalog) LengthInstruction(length string) string {
	for _, l := range c.MessageLengths {
		if l.Value == length {
			return l.Instruction
		}
	}
	for _, l := range c.MessageLengths {
		if l.Value == core.DefaultMessageLength {
			return l.Instruction
		}
	}
	return ""
}

// FirstFont is the font used when a recommendation cannot be trusted.
func (c *Catalog) FirstFont() string {
	return c.Fonts[0].Value
}

// FontValues lists every font value in catalog order.
func (c *Catalog) FontValues() []string {
	out := make([]string, len(c.Fonts))
	for i, f := range c.Fonts {
		out[i] = f.Value
	}
	return out
}

// AllImageStyles flattens the style groups.
func (c *Catalog) AllImageStyles() []Option {
	var out []Option
	for _, g := range c.ImageStyles {
		out = append(out, g.Styles...)
	}
	return out
}

// NewCard returns a default card with the first image style selected.
func (c *Catalog) NewCard() *core.Card {
	card := core.NewCard()
	card.ImageStyle = c.ImageStyles[0].Styles[0].Value
	return card
}

// RandomTemplate picks a random look: design, message box style, font,
// image style, mask, border and, half of the time, a background colour.
func (c *Catalog) RandomTemplate(r *rand.Rand) core.Patch {
	pick := func(opts []Option) *string {
		return core.String(opts[r.IntN(len(opts))].Value)
	}

	bg := core.DefaultBackgroundColor
	if r.IntN(2) == 1 {
		bg = fmt.Sprintf("#%06x", r.IntN(0x1000000))
	}

	return core.Patch{
		Design:          pick(c.Designs),
		MessageBoxStyle: pick(c.MessageBoxStyles),
		Font:            pick(c.Fonts),
		ImageStyle:      pick(c.AllImageStyles()),
		ImageMask:       pick(c.ImageMasks),
		ImageBorder:     pick(c.ImageBorders),
		BackgroundColor: &bg,
	}
}

// ValidatePatch checks every enumerated field present in p.
func (c *Catalog) ValidatePatch(p core.Patch) error {
	checks := []struct {
		field string
		value *string
		ok    func(string) bool
	}{
		{"theme", p.Theme, c.HasTheme},
		{"font", p.Font, c.HasFont},
		{"imageStyle", p.ImageStyle, c.HasImageStyle},
		{"design", p.Design, c.HasDesign},
		{"messageBoxStyle", p.MessageBoxStyle, c.HasMessageBoxStyle},
		{"imageMask", p.ImageMask, c.HasImageMask},
		{"imageBorder", p.ImageBorder, c.HasImageBorder},
		{"messageLength", p.MessageLength, c.HasMessageLength},
		{"alignment", p.Alignment, c.HasAlignment},
	}
	for _, chk := range checks {
		if chk.value != nil && !chk.ok(*chk.value) {
			return fmt.Errorf("%w: %s %q", ErrUnknownOption, chk.field, *chk.value)
		}
	}
	return nil
}
