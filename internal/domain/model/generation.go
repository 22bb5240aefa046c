package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"content-payment-service/internal/domain"
)

const (
	maxSources     = 200
	maxSections    = 100
	minTargetWords = 100
	maxTargetWords = 20000
)

// MaxEstimatedPages is the page count of the longest accepted document.
const (
	WordsPerPage      = 250
	MaxEstimatedPages = maxTargetWords / WordsPerPage
)

var (
	citationStyles = map[string]bool{"": true, "APA": true, "MLA": true, "Chicago": true, "Harvard": true}
	tones          = map[string]bool{"": true, "academic": true, "professional": true, "conversational": true, "persuasive": true}
)

// OutlineSection is one heading of the requested document. Older clients sent
// the heading as "title"; it is accepted on input and stored as heading.
type OutlineSection struct {
	Heading     string   `json:"heading" firestore:"heading"`
	Description string   `json:"description" firestore:"description"`
	KeyPoints   []string `json:"key_points" firestore:"key_points"`
}

func (s *OutlineSection) UnmarshalJSON(b []byte) error {
	var raw struct {
		Heading     string   `json:"heading"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		KeyPoints   []string `json:"key_points"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Heading = raw.Heading
	if strings.TrimSpace(s.Heading) == "" {
		s.Heading = raw.Title
	}
	s.Description = raw.Description
	s.KeyPoints = raw.KeyPoints
	return nil
}

type Outline struct {
	ID       string           `json:"id,omitempty" firestore:"id,omitempty"`
	Title    string           `json:"title" firestore:"title"`
	Sections []OutlineSection `json:"sections" firestore:"sections"`
}

type GenerationSettings struct {
	DocumentType      string `json:"document_type,omitempty" firestore:"document_type,omitempty"`
	TargetWords       int    `json:"target_words,omitempty" firestore:"target_words,omitempty"`
	CitationStyle     string `json:"citation_style,omitempty" firestore:"citation_style,omitempty"`
	Tone              string `json:"tone,omitempty" firestore:"tone,omitempty"`
	IncludeAbstract   bool   `json:"include_abstract,omitempty" firestore:"include_abstract,omitempty"`
	IncludeConclusion bool   `json:"include_conclusion,omitempty" firestore:"include_conclusion,omitempty"`
}

// GenerationInputs is the caller-supplied payload of a job. It is validated once
// at the boundary and stored as-is; the payment flow only reads SourceIDs.
type GenerationInputs struct {
	SourceIDs []string           `json:"source_ids" firestore:"source_ids"`
	Outline   Outline            `json:"outline" firestore:"outline"`
	Settings  GenerationSettings `json:"settings" firestore:"settings"`
}

func (in GenerationInputs) SourceCount() int { return len(in.SourceIDs) }

// Validate rejects inputs a worker could never turn into content.
func (in GenerationInputs) Validate() error {
	if len(in.SourceIDs) == 0 || len(in.SourceIDs) > maxSources {
		return fmt.Errorf("%w: source_ids must contain 1..%d entries", domain.ErrInvalidArgument, maxSources)
	}
	for _, id := range in.SourceIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty source id", domain.ErrInvalidArgument)
		}
	}
	if strings.TrimSpace(in.Outline.Title) == "" {
		return fmt.Errorf("%w: outline.title is required", domain.ErrInvalidArgument)
	}
	if len(in.Outline.Sections) == 0 || len(in.Outline.Sections) > maxSections {
		return fmt.Errorf("%w: outline.sections must contain 1..%d entries", domain.ErrInvalidArgument, maxSections)
	}
	for i, sec := range in.Outline.Sections {
		if strings.TrimSpace(sec.Heading) == "" {
			return fmt.Errorf("%w: outline.sections[%d].heading is required", domain.ErrInvalidArgument, i)
		}
	}
	s := in.Settings
	if s.TargetWords != 0 && (s.TargetWords < minTargetWords || s.TargetWords > maxTargetWords) {
		return fmt.Errorf("%w: settings.target_words must be between %d and %d", domain.ErrInvalidArgument, minTargetWords, maxTargetWords)
	}
	if !citationStyles[s.CitationStyle] {
		return fmt.Errorf("%w: unsupported citation_style %q", domain.ErrInvalidArgument, s.CitationStyle)
	}
	if !tones[s.Tone] {
		return fmt.Errorf("%w: unsupported tone %q", domain.ErrInvalidArgument, s.Tone)
	}
	return nil
}
