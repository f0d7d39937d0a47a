package poll

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pollhub/internal/platform/apperr"
)

// draft is the typed result of the validation stage.
type draft struct {
	Title       string   `validate:"max=200"`
	Description *string  `validate:"omitempty,max=2000"`
	Options     []string `validate:"dive,max=200"`
}

// normalize turns untyped poll fields into a draft, checking in order:
// title, option count, option types, field lengths, end date.
// endDate is only checked when non-nil.
func (s *Service) normalize(title string, description *string, rawOptions []any, endDate *time.Time) (*draft, error) {
	d := &draft{Title: strings.TrimSpace(title)}
	if d.Title == "" {
		return nil, apperr.Validation("title required", nil)
	}

	if description != nil {
		desc := strings.TrimSpace(*description)
		if desc != "" {
			d.Description = &desc
		}
	}

	options, badType := normalizeOptions(rawOptions)
	if len(options) < MinOptions {
		return nil, apperr.Validation("at least 2 options required", nil)
	}
	if len(options) > MaxOptions {
		return nil, apperr.Validation("too many options", nil)
	}
	if badType {
		return nil, apperr.Validation("invalid option type", nil)
	}
	d.Options = options

	if err := s.validate.Struct(d); err != nil {
		return nil, apperr.Validation(describeDraft(err), err)
	}

	if endDate != nil && !endDate.After(s.now()) {
		return nil, apperr.Validation("end date must be in the future", nil)
	}

	return d, nil
}

// normalizeOptions trims, drops empties and removes case-insensitive
// duplicates, keeping the first spelling. badType reports any non-string
// value.
func normalizeOptions(raw []any) (options []string, badType bool) {
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		text, ok := v.(string)
		if !ok {
			badType = true
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, text)
	}
	return options, badType
}

func describeDraft(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid poll"
	}
	switch verrs[0].StructField() {
	case "Title":
		return "title too long"
	case "Description":
		return "description too long"
	default:
		return "option too long"
	}
}

func optionTexts(opts []Option) []any {
	out := make([]any, len(opts))
	for i, o := range opts {
		out[i] = o.Text
	}
	return out
}
