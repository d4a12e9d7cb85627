package handlers

import (
	"net/http"

	"motiongen/internal/domain"
)

type durationBounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type presetsResponse struct {
	Styles       []string             `json:"styles"`
	Pacings      []string             `json:"pacings"`
	Palettes     []string             `json:"palettes"`
	AspectRatios []string             `json:"aspectRatios"`
	Duration     durationBounds       `json:"duration"`
	Defaults     domain.SettingsInput `json:"defaults"`
}

func labels[T interface{ String() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

// Presets lists the closed option sets and defaults the animation form offers.
func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	d := domain.DefaultSettings()
	a.json(w, http.StatusOK, presetsResponse{
		Styles:       labels(domain.AllStyles()),
		Pacings:      labels(domain.AllPacings()),
		Palettes:     labels(domain.AllPalettes()),
		AspectRatios: labels(domain.AllAspectRatios()),
		Duration: durationBounds{
			Min:     domain.MinDurationSeconds,
			Max:     domain.MaxDurationSeconds,
			Default: domain.DefaultDurationSeconds,
		},
		Defaults: domain.SettingsInput{
			Text:        d.Text,
			Style:       d.Style.String(),
			Pacing:      d.Pacing.String(),
			Duration:    &d.Duration,
			Palette:     d.Palette.String(),
			AspectRatio: d.AspectRatio.String(),
		},
	})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
