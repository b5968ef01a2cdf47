package app

import (
	"fmt"
	"strings"
)

// Processing modes for image uploads. Auto uses the built-in extraction
// prompt, manual uses the caller's instruction verbatim, hybrid appends the
// caller's instruction to the built-in prompt.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
	ModeHybrid = "hybrid"
)

const defaultExtractionPrompt = "Describe this image in detail. Extract all visible text, objects, people, " +
	"colors, and notable elements so that follow-up questions can be answered " +
	"from the description alone."

const followUpSystemPrompt = "You are a helpful assistant answering questions about an image. " +
	"Base your answers on the provided image description."

func resolveExtractionPrompt(mode, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	switch mode {
	case "", ModeAuto:
		return defaultExtractionPrompt, nil
	case ModeManual:
		if instruction == "" {
			return "", fmt.Errorf("%w: manual mode requires an instruction", ErrInvalidMode)
		}
		return instruction, nil
	case ModeHybrid:
		if instruction == "" {
			return defaultExtractionPrompt, nil
		}
		return defaultExtractionPrompt + "\n\nAdditional instruction: " + instruction, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// buildFollowUpPrompt embeds the stored description verbatim plus the
// question, so the generator sees both literally.
func buildFollowUpPrompt(extracted, question string) string {
	return fmt.Sprintf("Image description:\n%s\n\nQuestion: %s", extracted, question)
}
