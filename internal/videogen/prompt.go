package videogen

import (
	"fmt"
	"strings"

	"motiongen/internal/domain"
)

// BuildPrompt renders the instruction sent to the video model. It is pure:
// the same settings always produce the same string.
//
// Edit text is embedded verbatim. It is not escaped, so whatever the user
// types reaches the model as-is.
func BuildPrompt(settings domain.GenerationSettings) string {
	parts := []string{
		fmt.Sprintf("Generate a professional, high-quality motion graphics animation with a %s aspect ratio.", settings.AspectRatio.Token()),
		fmt.Sprintf("The total duration should be exactly %d seconds.", settings.Duration),
	}
	if strings.TrimSpace(settings.Text) != "" {
		parts = append(parts, fmt.Sprintf("The animation must prominently feature the provided image, but with the following creative edits applied during the animation: \"%s\".", settings.Text))
	} else {
		parts = append(parts, "The animation must prominently feature the provided image.")
	}
	parts = append(parts,
		fmt.Sprintf("The overall animation style must be \"%s\".", settings.Style),
		fmt.Sprintf("The pacing should be \"%s\".", settings.Pacing),
		fmt.Sprintf("The color palette should be inspired by \"%s\".", settings.Palette),
		"Ensure all transitions are smooth, the visuals are polished, and the final output is of professional quality.",
		"Do not include any sound or audio track.",
	)
	return strings.Join(parts, "\n")
}
