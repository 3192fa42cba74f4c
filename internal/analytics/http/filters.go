package analytichttp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/rentals"
)

// filterForm mirrors the sidebar query string.
type filterForm struct {
	From     string   `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string   `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Date     string   `form:"date" validate:"omitempty,datetime=2006-01-02"`
	Seasons  []string `form:"season" validate:"dive,season"`
	Weathers []string `form:"weather" validate:"dive,weather"`
	Applied  bool     `form:"apply"`
}

// selection is a validated filter plus the dataset bounds it was resolved against.
type selection struct {
	filter analytics.Filter
	date   time.Time
	first  time.Time
	latest time.Time
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return containsString(rentals.SeasonLabels(), fl.Field().String())
	})
	_ = v.RegisterValidation("weather", func(fl validator.FieldLevel) bool {
		return containsString(rentals.WeatherLabels(), fl.Field().String())
	})
	return v
}

func readFilterForm(values url.Values) filterForm {
	return filterForm{
		From:     strings.TrimSpace(values.Get("from")),
		To:       strings.TrimSpace(values.Get("to")),
		Date:     strings.TrimSpace(values.Get("date")),
		Seasons:  normalizeLabels(values["season"], seasonLabel),
		Weathers: normalizeLabels(values["weather"], weatherLabel),
		Applied:  values.Get("apply") == "1",
	}
}

// normalizeLabels drops blank entries and maps numeric codes onto labels.
func normalizeLabels(raw []string, byCode func(string) string) []string {
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if label := byCode(value); label != "" {
			value = label
		}
		out = append(out, value)
	}
	return out
}

func seasonLabel(code string) string {
	for _, s := range rentals.Seasons {
		if fmt.Sprint(int(s)) == code {
			return s.Label()
		}
	}
	return ""
}

func weatherLabel(code string) string {
	for _, w := range rentals.Weathers {
		if fmt.Sprint(int(w)) == code {
			return w.Label()
		}
	}
	return ""
}

func (h *Handler) validateForm(form filterForm) error {
	if err := h.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationError{field: verrs[0].Field()}
		}
		return err
	}
	return nil
}

// resolveSelection validates the query string and fills omitted values from
// the dataset bounds. Absent season or weather parameters select every label
// unless the form was submitted, in which case an empty list selects nothing.
func (h *Handler) resolveSelection(ctx context.Context, values url.Values) (selection, error) {
	form := readFilterForm(values)
	if err := h.validateForm(form); err != nil {
		return selection{}, err
	}

	snap, err := h.service.Snapshot(ctx)
	if err != nil {
		return selection{}, err
	}
	var sel selection
	if snap.Table != nil {
		sel.first, _ = snap.Table.First()
		sel.latest, _ = snap.Table.Latest()
	}

	sel.filter = analytics.Filter{From: sel.first, To: sel.latest, Seasons: form.Seasons, Weathers: form.Weathers}
	if form.From != "" {
		sel.filter.From, _ = rentals.ParseDay(form.From)
	}
	if form.To != "" {
		sel.filter.To, _ = rentals.ParseDay(form.To)
	}
	if sel.filter.From.After(sel.filter.To) {
		return selection{}, validationError{field: "from"}
	}
	if !form.Applied {
		if len(sel.filter.Seasons) == 0 {
			sel.filter.Seasons = rentals.SeasonLabels()
		}
		if len(sel.filter.Weathers) == 0 {
			sel.filter.Weathers = rentals.WeatherLabels()
		}
	}
	if form.Date != "" {
		sel.date, _ = rentals.ParseDay(form.Date)
	}
	return sel, nil
}

// parseReferenceDate accepts an optional YYYY-MM-DD value. The zero time
// selects the latest date in the dataset.
func (h *Handler) parseReferenceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if err := h.validate.Var(raw, "datetime=2006-01-02"); err != nil {
		return time.Time{}, validationError{field: "date"}
	}
	return rentals.ParseDay(raw)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
