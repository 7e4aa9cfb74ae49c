package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CustomizationKind tags which variant a Customization holds.
type CustomizationKind string

const (
	CustomizationNone  CustomizationKind = "none"
	CustomizationColor CustomizationKind = "color"
	CustomizationText  CustomizationKind = "text"
	CustomizationBoth  CustomizationKind = "both"
)

// ColorChoice is a named color picked by the customer.
type ColorChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TextChoice is an engraving or printed text.
type TextChoice struct {
	Value string `json:"value"`
}

// Customization is the tagged variant attached to cart lines and order items:
// none, color, text, or both. The zero value is "none".
type Customization struct {
	Color *ColorChoice `json:"color,omitempty"`
	Text  *TextChoice  `json:"text,omitempty"`
}

// Normalize trims values and drops empty choices.
func (c Customization) Normalize() Customization {
	out := Customization{}
	if c.Color != nil {
		color := ColorChoice{Name: strings.TrimSpace(c.Color.Name), Value: strings.TrimSpace(c.Color.Value)}
		if color.Value == "" {
			color.Value = color.Name
		}
		if color.Name == "" {
			color.Name = color.Value
		}
		if color.Value != "" {
			out.Color = &color
		}
	}
	if c.Text != nil {
		text := strings.TrimSpace(c.Text.Value)
		if text != "" {
			out.Text = &TextChoice{Value: text}
		}
	}
	return out
}

func (c Customization) Kind() CustomizationKind {
	switch {
	case c.Color != nil && c.Text != nil:
		return CustomizationBoth
	case c.Color != nil:
		return CustomizationColor
	case c.Text != nil:
		return CustomizationText
	default:
		return CustomizationNone
	}
}

func (c Customization) IsZero() bool {
	return c.Kind() == CustomizationNone
}

// Discriminator returns the stable value that distinguishes this variant inside a
// cart line key. A color and a text sharing the same value produce the same
// discriminator.
func (c Customization) Discriminator() string {
	switch c.Kind() {
	case CustomizationColor:
		return c.Color.Value
	case CustomizationText:
		return c.Text.Value
	case CustomizationBoth:
		return c.Color.Value + "-" + c.Text.Value
	default:
		return ""
	}
}

// Label renders the customization for order summaries.
func (c Customization) Label() string {
	switch c.Kind() {
	case CustomizationColor:
		return "Color: " + c.Color.Name
	case CustomizationText:
		return fmt.Sprintf("Texto: %q", c.Text.Value)
	case CustomizationBoth:
		return fmt.Sprintf("Color: %s, Texto: %q", c.Color.Name, c.Text.Value)
	default:
		return ""
	}
}

// Validate checks the variant against a product's customization settings.
func (c Customization) Validate(customizable bool, maxTextLength int) error {
	if c.IsZero() {
		return nil
	}
	if !customizable {
		return fmt.Errorf("product does not accept customization")
	}
	if c.Text != nil && maxTextLength > 0 && utf8.RuneCountInString(c.Text.Value) > maxTextLength {
		return fmt.Errorf("customization text exceeds %d characters", maxTextLength)
	}
	return nil
}
