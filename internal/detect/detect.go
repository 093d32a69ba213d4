// Package detect classifies rendered page content as "slots open" or not.
//
// The booking page announces unavailability with a known phrase, so the check
// is textual: extract the watched region, normalize whitespace, and look for
// any of the configured marker patterns. Marker absence means availability;
// optionally the page must also show something that looks like a timeslot.
package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespace = regexp.MustCompile(`\s+`)

// Status is the outcome of classifying one snapshot of the page. It is
// computed fresh on every check and never carried between iterations.
type Status struct {
	Available bool
	// Matched holds the pattern that decided the status: the marker that
	// declared the page unavailable, or the slot pattern that confirmed
	// availability when slot evidence is required.
	Matched string
}

// Options configures a Detector.
type Options struct {
	// Selector is the CSS selector whose text content is classified.
	// Empty means the whole body.
	Selector string

	// Markers are case-insensitive patterns meaning "no slots open".
	Markers []string

	// SlotPatterns look like concrete timeslots. Only consulted when
	// RequireSlotEvidence is set.
	SlotPatterns []string

	RequireSlotEvidence bool
}

// Detector holds the compiled patterns for page classification.
type Detector struct {
	selector     string
	markers      []*regexp.Regexp
	slotPatterns []*regexp.Regexp
	requireSlots bool
}

// New compiles the configured patterns into a Detector.
func New(opts Options) (*Detector, error) {
	if len(opts.Markers) == 0 {
		return nil, fmt.Errorf("at least one unavailability marker is required")
	}

	selector := opts.Selector
	if selector == "" {
		selector = "body"
	}

	markers, err := compileAll(opts.Markers)
	if err != nil {
		return nil, fmt.Errorf("invalid marker pattern: %w", err)
	}

	slots, err := compileAll(opts.SlotPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid slot pattern: %w", err)
	}
	if opts.RequireSlotEvidence && len(slots) == 0 {
		return nil, fmt.Errorf("require_slot_evidence is set but no slot patterns are configured")
	}

	return &Detector{
		selector:     selector,
		markers:      markers,
		slotPatterns: slots,
		requireSlots: opts.RequireSlotEvidence,
	}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Classify parses the rendered HTML and decides whether the watched region
// currently shows availability.
func (d *Detector) Classify(html string) (Status, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Status{}, fmt.Errorf("parsing page HTML: %w", err)
	}

	region := doc.Find(d.selector)
	text := region.Text()
	if region.Length() == 0 {
		// Watched region missing, likely a partial render. Fall back to the
		// whole document so a marker elsewhere still counts.
		text = doc.Text()
	}

	return d.classifyText(text), nil
}

func (d *Detector) classifyText(text string) Status {
	normalized := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if normalized == "" {
		// An empty page is a reload glitch, not an open slot.
		return Status{Available: false}
	}

	for _, marker := range d.markers {
		if marker.MatchString(normalized) {
			return Status{Available: false, Matched: marker.String()}
		}
	}

	if d.requireSlots {
		for _, slot := range d.slotPatterns {
			if slot.MatchString(normalized) {
				return Status{Available: true, Matched: slot.String()}
			}
		}
		return Status{Available: false}
	}

	return Status{Available: true}
}
