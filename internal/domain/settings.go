package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Duration bounds accepted by the animation form, in seconds.
const (
	MinDurationSeconds     = 3
	MaxDurationSeconds     = 30
	DefaultDurationSeconds = 10
)

// Style enumerates the animation style presets.
type Style int

const (
	StyleMinimalistFade Style = iota + 1
	StyleDynamicZoomPan
	StyleCinematicReveal
	StyleEnergeticPopUp
	StyleElegantSlideIn
	StyleGlitchDigital
)

// Pacing enumerates the pacing presets.
type Pacing int

const (
	PacingSlowDeliberate Pacing = iota + 1
	PacingModerateSmooth
	PacingFastEnergetic
)

// Palette enumerates the color palette presets.
type Palette int

const (
	PaletteVibrantPunchy Palette = iota + 1
	PaletteCorporateBlueWhite
	PaletteMonochromeGrayscale
	PaletteEarthyNatural
	PaletteNeonFuturistic
)

// AspectRatio enumerates the aspect ratio presets. Each label starts with its
// ratio token, e.g. "16:9 (Landscape)".
type AspectRatio int

const (
	AspectLandscape AspectRatio = iota + 1
	AspectPortrait
	AspectSquare
	AspectClassic
)

var styleLabels = map[Style]string{
	StyleMinimalistFade:  "Minimalist Fade",
	StyleDynamicZoomPan:  "Dynamic Zoom & Pan",
	StyleCinematicReveal: "Cinematic Reveal",
	StyleEnergeticPopUp:  "Energetic Pop-Up",
	StyleElegantSlideIn:  "Elegant Slide-In",
	StyleGlitchDigital:   "Glitch & Digital",
}

var pacingLabels = map[Pacing]string{
	PacingSlowDeliberate: "Slow and Deliberate",
	PacingModerateSmooth: "Moderate and Smooth",
	PacingFastEnergetic:  "Fast and Energetic",
}

var paletteLabels = map[Palette]string{
	PaletteVibrantPunchy:       "Vibrant & Punchy",
	PaletteCorporateBlueWhite:  "Corporate Blue & White",
	PaletteMonochromeGrayscale: "Monochrome & Grayscale",
	PaletteEarthyNatural:       "Earthy & Natural",
	PaletteNeonFuturistic:      "Neon & Futuristic",
}

var aspectLabels = map[AspectRatio]string{
	AspectLandscape: "16:9 (Landscape)",
	AspectPortrait:  "9:16 (Portrait)",
	AspectSquare:    "1:1 (Square)",
	AspectClassic:   "4:3 (Classic)",
}

func (s Style) String() string       { return styleLabels[s] }
func (p Pacing) String() string      { return pacingLabels[p] }
func (p Palette) String() string     { return paletteLabels[p] }
func (a AspectRatio) String() string { return aspectLabels[a] }

func (s Style) Valid() bool       { _, ok := styleLabels[s]; return ok }
func (p Pacing) Valid() bool      { _, ok := pacingLabels[p]; return ok }
func (p Palette) Valid() bool     { _, ok := paletteLabels[p]; return ok }
func (a AspectRatio) Valid() bool { _, ok := aspectLabels[a]; return ok }

// Token returns the ratio token embedded in the label: the text before the
// first space ("16:9" for "16:9 (Landscape)").
func (a AspectRatio) Token() string {
	label := a.String()
	if i := strings.IndexByte(label, ' '); i >= 0 {
		return label[:i]
	}
	return label
}

// AllStyles returns the style presets in display order.
func AllStyles() []Style {
	return []Style{StyleMinimalistFade, StyleDynamicZoomPan, StyleCinematicReveal, StyleEnergeticPopUp, StyleElegantSlideIn, StyleGlitchDigital}
}

// AllPacings returns the pacing presets in display order.
func AllPacings() []Pacing {
	return []Pacing{PacingSlowDeliberate, PacingModerateSmooth, PacingFastEnergetic}
}

// AllPalettes returns the palette presets in display order.
func AllPalettes() []Palette {
	return []Palette{PaletteVibrantPunchy, PaletteCorporateBlueWhite, PaletteMonochromeGrayscale, PaletteEarthyNatural, PaletteNeonFuturistic}
}

// AllAspectRatios returns the aspect ratio presets in display order.
func AllAspectRatios() []AspectRatio {
	return []AspectRatio{AspectLandscape, AspectPortrait, AspectSquare, AspectClassic}
}

var fold = cases.Fold()

func matchLabel(input string, label string) bool {
	return fold.String(strings.TrimSpace(input)) == fold.String(label)
}

// ParseStyle resolves a style label, ignoring case and surrounding spaces.
func ParseStyle(label string) (Style, error) {
	for _, s := range AllStyles() {
		if matchLabel(label, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown style %q", ErrInvalidSettings, label)
}

// ParsePacing resolves a pacing label.
func ParsePacing(label string) (Pacing, error) {
	for _, p := range AllPacings() {
		if matchLabel(label, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pacing %q", ErrInvalidSettings, label)
}

// ParsePalette resolves a palette label.
func ParsePalette(label string) (Palette, error) {
	for _, p := range AllPalettes() {
		if matchLabel(label, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown palette %q", ErrInvalidSettings, label)
}

// ParseAspectRatio resolves an aspect ratio by its full label ("16:9
// (Landscape)") or by its bare token ("16:9").
func ParseAspectRatio(label string) (AspectRatio, error) {
	for _, a := range AllAspectRatios() {
		if matchLabel(label, a.String()) || strings.TrimSpace(label) == a.Token() {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown aspect ratio %q", ErrInvalidSettings, label)
}

// GenerationSettings is the structured form input for one animation.
type GenerationSettings struct {
	Text        string
	Style       Style
	Pacing      Pacing
	Palette     Palette
	AspectRatio AspectRatio
	Duration    int
}

// DefaultSettings mirrors the initial state of the animation form.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		Style:       StyleMinimalistFade,
		Pacing:      PacingModerateSmooth,
		Palette:     PaletteVibrantPunchy,
		AspectRatio: AspectLandscape,
		Duration:    DefaultDurationSeconds,
	}
}

// Validate reports the first invalid field.
func (s GenerationSettings) Validate() error {
	switch {
	case !s.Style.Valid():
		return fmt.Errorf("%w: style is required", ErrInvalidSettings)
	case !s.Pacing.Valid():
		return fmt.Errorf("%w: pacing is required", ErrInvalidSettings)
	case !s.Palette.Valid():
		return fmt.Errorf("%w: palette is required", ErrInvalidSettings)
	case !s.AspectRatio.Valid():
		return fmt.Errorf("%w: aspect ratio is required", ErrInvalidSettings)
	case s.Duration < MinDurationSeconds || s.Duration > MaxDurationSeconds:
		return fmt.Errorf("%w: duration must be between %d and %d seconds", ErrInvalidSettings, MinDurationSeconds, MaxDurationSeconds)
	}
	return nil
}

// SettingsInput is the wire form of GenerationSettings, using preset labels.
type SettingsInput struct {
	Text        string `json:"text"`
	Style       string `json:"style"`
	Pacing      string `json:"pacing"`
	Duration    *int   `json:"duration"`
	Palette     string `json:"palette"`
	AspectRatio string `json:"aspectRatio"`
}

// Settings converts the wire form into validated settings. Empty preset
// fields and an absent duration fall back to the form defaults.
func (in SettingsInput) Settings() (GenerationSettings, error) {
	out := DefaultSettings()
	out.Text = in.Text
	var err error
	if strings.TrimSpace(in.Style) != "" {
		if out.Style, err = ParseStyle(in.Style); err != nil {
			return GenerationSettings{}, err
		}
	}
	if strings.TrimSpace(in.Pacing) != "" {
		if out.Pacing, err = ParsePacing(in.Pacing); err != nil {
			return GenerationSettings{}, err
		}
	}
	if strings.TrimSpace(in.Palette) != "" {
		if out.Palette, err = ParsePalette(in.Palette); err != nil {
			return GenerationSettings{}, err
		}
	}
	if strings.TrimSpace(in.AspectRatio) != "" {
		if out.AspectRatio, err = ParseAspectRatio(in.AspectRatio); err != nil {
			return GenerationSettings{}, err
		}
	}
	if in.Duration != nil {
		out.Duration = *in.Duration
	}
	if err := out.Validate(); err != nil {
		return GenerationSettings{}, err
	}
	return out, nil
}
