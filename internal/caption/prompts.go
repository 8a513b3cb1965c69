package caption

import (
	"fmt"
	"strings"
)

const (
	creativePrompt = "Describe this image in a creative and engaging way. What is happening? What emotions does it evoke?"

	factualPrompt = "Describe this image accurately and factually. Name the main subjects and where they are, " +
		"quote any legible text exactly, and describe the setting. Do not speculate beyond what is visible."

	deepPrompt = "Analyze this image in depth. Cover the composition, lighting and colour palette, the subjects " +
		"and their relationships, any legible text, and the mood. Finish with a short paragraph interpreting " +
		"what the image communicates."

	explainPrompt = "A user of an image captioning app saw the following error while generating a caption:\n\n%s\n\n" +
		"Explain in one or two friendly sentences what most likely went wrong and what they can try next. " +
		"Do not mention internal error codes."
)

// BuildPrompt returns the text part sent alongside the image.
func BuildPrompt(mode Mode, hints Hints) string {
	var b strings.Builder

	switch mode {
	case ModeFactual:
		b.WriteString(factualPrompt)
	case ModeDeep:
		b.WriteString(deepPrompt)
	default:
		b.WriteString(creativePrompt)
	}

	if !mode.Grounded() {
		return b.String()
	}

	if text := strings.TrimSpace(hints.Text); text != "" {
		fmt.Fprintf(&b, "\n\nText detected in the image by OCR (may contain mistakes): %q", text)
	}
	if palette := strings.TrimSpace(hints.Palette); palette != "" && mode == ModeDeep {
		fmt.Fprintf(&b, "\n\nDominant colours measured from the pixels: %s", palette)
	}
	return b.String()
}

func buildExplainPrompt(err error) string {
	return fmt.Sprintf(explainPrompt, err.Error())
}
