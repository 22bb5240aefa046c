package ai

import (
	"fmt"
	"strings"

	"content-payment-service/internal/domain/model"
)

const systemPrompt = "You are an expert writer producing well-structured, original long-form documents. " +
	"Follow the outline exactly, write in Markdown, and cite the provided sources where relevant."

// buildPrompt renders job inputs into the user turn of a generation request.
func buildPrompt(in model.GenerationInputs) string {
	var b strings.Builder
	s := in.Settings

	docType := s.DocumentType
	if docType == "" {
		docType = "document"
	}
	fmt.Fprintf(&b, "Write a %s titled %q.\n", docType, in.Outline.Title)
	if s.TargetWords > 0 {
		fmt.Fprintf(&b, "Length: about %d words.\n", s.TargetWords)
	}
	if s.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", s.Tone)
	}
	if s.CitationStyle != "" {
		fmt.Fprintf(&b, "Citation style: %s.\n", s.CitationStyle)
	}
	if s.IncludeAbstract {
		b.WriteString("Begin with an abstract.\n")
	}

	b.WriteString("\nOutline:\n")
	for i, sec := range in.Outline.Sections {
		fmt.Fprintf(&b, "%d. %s", i+1, sec.Heading)
		if sec.Description != "" {
			fmt.Fprintf(&b, " - %s", sec.Description)
		}
		b.WriteByte('\n')
		for _, kp := range sec.KeyPoints {
			if kp = strings.TrimSpace(kp); kp != "" {
				fmt.Fprintf(&b, "   - %s\n", kp)
			}
		}
	}
	if s.IncludeConclusion {
		b.WriteString("End with a conclusion section.\n")
	}

	b.WriteString("\nSources: ")
	b.WriteString(strings.Join(in.SourceIDs, ", "))
	b.WriteByte('\n')
	return b.String()
}
