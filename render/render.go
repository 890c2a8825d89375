// Package render draws a card as a self-contained HTML document. The same
// markup backs the live preview and the PNG export.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"cardstudio/catalog"
	"cardstudio/core"
	"cardstudio/interaction"

	"github.com/rivo/uniseg"
)

//go:embed card.html.tmpl
var cardTemplate string

// CardElementID is the DOM id of the card container; exports capture it.
const CardElementID = "card"

// PlaceholderMessage is shown while the message is empty.
const PlaceholderMessage = "Your heartfelt message will appear here.\nAsk the AI to write one!"

var (
	cssColor  = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3,8}|[a-zA-Z]+)$`)
	cssUnsafe = strings.NewReplacer(`"`, "", `'`, "", ";", "", "{", "", "}", "", "<", "", ">", "", `\`, "")
)

// View controls the editor chrome drawn around the card.
type View struct {
	// Selection is the selected element id. Only the selected element gets
	// a ring and, for decorations, its controls.
	Selection string
	// Interactive adds hover handles for the resizable elements.
	Interactive bool
}

// Renderer turns cards into HTML.
type Renderer struct {
	catalog     *catalog.Catalog
	tmpl        *template.Template
	tailwindURL string
}

// New parses the card template. tailwindURL, when set, is loaded as a
// script so catalogue classes take effect.
func New(cat *catalog.Catalog, tailwindURL string) (*Renderer, error) {
	tmpl, err := template.New("card").Parse(cardTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse card template: %w", err)
	}
	return &Renderer{catalog: cat, tmpl: tmpl, tailwindURL: tailwindURL}, nil
}

// Card writes the HTML document for c.
func (r *Renderer) Card(w io.Writer, c *core.Card, v View) error {
	return r.tmpl.Execute(w, r.page(c, v))
}

// HTML is Card into a buffer.
func (r *Renderer) HTML(c *core.Card, v View) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Card(&buf, c, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type page struct {
	Title       string
	TailwindURL string
	View        View
	Card        cardView
}

type cardView struct {
	ID        string
	Class     string
	Style     template.CSS
	Design    string
	Recipient *labelView
	Sender    *labelView
	Image     imageView
	Caption   *elementView
	Message   messageView
	Stickers  []decorationView
}

type elementView struct {
	Style    template.CSS
	Selected bool
	Text     string
}

type labelView struct {
	elementView
	SelectionID string
}

type imageView struct {
	elementView
	Src       template.URL
	HasSource bool
	MaskStyle template.CSS
	Border    string
}

type messageView struct {
	elementView
	TextStyle   template.CSS
	Alignment   string
	BoxStyle    string
	Placeholder bool
}

type decorationView struct {
	elementView
	ID      string
	Content string
	Long    bool
}

func (r *Renderer) page(c *core.Card, v View) page {
	sel := v.Selection
	cv := cardView{
		ID:     c.ID,
		Class:  r.catalog.ThemeClass(c.Theme),
		Style:  template.CSS(backgroundStyle(c.BackgroundColor)),
		Design: c.Design,
		Image: imageView{
			elementView: elementView{
				Style:    template.CSS(imageStyle(c)),
				Selected: sel == interaction.SelectImage,
			},
			MaskStyle: template.CSS(MaskStyle(c.ImageMask, c.CustomImageRadius) + fmt.Sprintf("height: %s;", imageInnerHeight(c))),
			Border:    c.ImageBorder,
		},
		Message: messageView{
			elementView: elementView{
				Style: template.CSS(fmt.Sprintf("transform: %s; width: %s%%; padding: %spx;",
					Translate(c.MessagePosition), num(c.MessageBoxWidth), num(c.MessageBoxPadding))),
				Selected: sel == interaction.SelectMessage,
				Text:     c.Message,
			},
			TextStyle: template.CSS(fmt.Sprintf("font-family: '%s'; font-size: %spx;", cssUnsafe.Replace(c.Font), num(c.FontSize))),
			Alignment: c.Alignment,
			BoxStyle:  c.MessageBoxStyle,
		},
	}

	if src, ok := imageSource(c.ImageURL); ok {
		cv.Image.Src = src
		cv.Image.HasSource = true
	}
	if cv.Message.Text == "" {
		cv.Message.Text = PlaceholderMessage
		cv.Message.Placeholder = true
	}
	if c.Recipient != "" {
		cv.Recipient = &labelView{
			elementView: elementView{
				Style:    template.CSS("transform: " + Translate(c.RecipientPosition) + ";"),
				Selected: sel == interaction.SelectRecipient,
				Text:     "To. " + c.Recipient,
			},
			SelectionID: interaction.SelectRecipient,
		}
	}
	if line := SenderLine(c.SenderLabel, c.Sender); line != "" {
		cv.Sender = &labelView{
			elementView: elementView{
				Style:    template.CSS("transform: " + Translate(c.SenderPosition) + ";"),
				Selected: sel == interaction.SelectSender,
				Text:     line,
			},
			SelectionID: interaction.SelectSender,
		}
	}
	if c.EnglishCaption != "" {
		cv.Caption = &elementView{
			Style:    template.CSS("transform: " + CaptionTransform(c.EnglishCaptionPosition, c.EnglishCaptionScale) + ";"),
			Selected: sel == interaction.SelectCaption,
			Text:     c.EnglishCaption,
		}
	}
	for _, d := range c.Decorations {
		cv.Stickers = append(cv.Stickers, decorationView{
			elementView: elementView{
				Style:    template.CSS("transform: " + DecorationTransform(d) + ";"),
				Selected: sel != "" && sel == d.ID,
			},
			ID:      d.ID,
			Content: d.Content,
			Long:    uniseg.GraphemeClusterCount(d.Content) > 4,
		})
	}

	title := c.Name
	if title == "" {
		title = r.catalog.EffectiveTheme(c.Theme, c.CustomTheme) + " card"
	}
	return page{Title: title, TailwindURL: r.tailwindURL, View: v, Card: cv}
}

// Translate is the CSS translation for an element offset.
func Translate(p core.Position) string {
	return fmt.Sprintf("translate(%spx, %spx)", num(p.X), num(p.Y))
}

// CaptionTransform positions and scales the caption. A zero scale is
// treated as 1.
func CaptionTransform(p core.Position, scale float64) string {
	if scale == 0 {
		scale = 1
	}
	return fmt.Sprintf("%s scale(%s)", Translate(p), num(scale))
}

// DecorationTransform applies translation, then rotation, then scale.
func DecorationTransform(d core.Decoration) string {
	return fmt.Sprintf("translate(%spx, %spx) rotate(%sdeg) scale(%s)", num(d.X), num(d.Y), num(d.Rotation), num(d.Scale))
}

// SenderLine is the text of the sender label, or empty when there is none.
func SenderLine(label, sender string) string {
	if label == "" && sender == "" {
		return ""
	}
	if label == "" {
		label = "From."
	}
	return strings.TrimSpace(label + " " + sender)
}

func imageStyle(c *core.Card) string {
	width := c.ImageWidth
	height := num(c.ImageHeight) + "px"
	if c.Design == "polaroid" {
		width = math.Min(width, 90)
		height = "auto"
	}
	return fmt.Sprintf("width: %s%%; height: %s; transform: %s;", num(width), height, Translate(c.ImagePosition))
}

func imageInnerHeight(c *core.Card) string {
	if c.Design == "polaroid" {
		return num(c.ImageHeight) + "px"
	}
	return "100%"
}

func backgroundStyle(color string) string {
	if color == "" || color == core.DefaultBackgroundColor || !cssColor.MatchString(color) {
		return ""
	}
	return "background-color: " + color + ";"
}

// imageSource admits web and inline image references only.
func imageSource(ref string) (template.URL, bool) {
	switch {
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "data:image/"):
		return template.URL(ref), true
	}
	return "", false
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
