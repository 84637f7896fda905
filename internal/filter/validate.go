package filter

import "time"

// Validation error messages. The date and amount pair messages are shared
// between both fields of the pair; the focus tie-break relies on that.
const (
	msgDateOrder   = "From date must be before To date"
	msgAmountOrder = "Min must be less than or equal to Max"
	msgNegative    = "Amount must be at least 0"
)

// Field names used as error keys and as the focused-field argument.
const (
	FieldFrom      = "from"
	FieldTo        = "to"
	FieldMinAmount = "minAmount"
	FieldMaxAmount = "maxAmount"
)

// Result reports filter validation. Errors maps field name to the first
// error found for that field. Validation failures are local and non-fatal;
// they never block other filters from applying.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Validate checks range consistency: from must not be after to, min must
// not exceed max, and amounts must not be negative. All simultaneous
// errors are reported.
//
// focused names the field the user is actively editing ("" for none).
// When both fields of a pair carry the same message — the pair is mutually
// invalid — the error is attributed to the field that is not focused, so
// the field being edited stays clean. With no focus, both sides report.
func Validate(m Model, focused string) Result {
	errs := make(map[string]string)

	if m.MinAmount != nil && *m.MinAmount < 0 {
		errs[FieldMinAmount] = msgNegative
	}
	if m.MaxAmount != nil && *m.MaxAmount < 0 {
		errs[FieldMaxAmount] = msgNegative
	}

	if m.MinAmount != nil && m.MaxAmount != nil &&
		errs[FieldMinAmount] == "" && errs[FieldMaxAmount] == "" &&
		*m.MinAmount > *m.MaxAmount {
		errs[FieldMinAmount] = msgAmountOrder
		errs[FieldMaxAmount] = msgAmountOrder
	}

	if m.From != "" && m.To != "" {
		from, errFrom := parseDate(m.From)
		to, errTo := parseDate(m.To)
		if errFrom == nil && errTo == nil && from.After(to) {
			errs[FieldFrom] = msgDateOrder
			errs[FieldTo] = msgDateOrder
		}
	}

	applyFocusTieBreak(errs, focused, FieldFrom, FieldTo, msgDateOrder)
	applyFocusTieBreak(errs, focused, FieldMinAmount, FieldMaxAmount, msgAmountOrder)

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// applyFocusTieBreak removes the focused field's error when the pair is
// mutually invalid (both sides carry the shared pair message). Both sides
// are logically invalid; attributing the complaint to one side is a UX
// policy only. Individual errors (e.g. a negative amount) are never
// suppressed.
func applyFocusTieBreak(errs map[string]string, focused, a, b, pairMsg string) {
	if focused != a && focused != b {
		return
	}
	if errs[a] != pairMsg || errs[b] != pairMsg {
		return
	}
	delete(errs, focused)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
