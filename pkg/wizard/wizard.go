// Package wizard drives a multi-page form where each page posts to its own
// endpoint and successful results seed the values of the pages after it.
package wizard

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/sirupsen/logrus"
)

// Values holds form values keyed by field name.
type Values map[string]any

// Field is one input on a page.
type Field struct {
	Name  string
	Label string
	// Rules is a validator tag string, e.g. "required,oneof=WES WGS". Rules
	// not starting with required are skipped when the value is absent.
	Rules string
	// Validate runs after Rules pass. It returns a message, or "" when valid.
	Validate func(value any, values Values) string
	// ShowIf hides the field unless it returns true for the current values.
	ShowIf  func(values Values) bool
	Default any
}

// Visible reports whether the field is shown for values.
func (f Field) Visible(values Values) bool {
	return f.ShowIf == nil || f.ShowIf(values)
}

// Page is one step of the wizard.
type Page struct {
	Name   string
	URL    string
	Fields []Field
	// MergeResponse folds the response body into the running values.
	MergeResponse bool
	// ResponseValues maps the response body to values. Defaults to the body itself.
	ResponseValues func(body map[string]any) Values
}

// Poster submits a page. *gateway.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, url string, body any) (gateway.Response, error)
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithInitialValues seeds the first page.
func WithInitialValues(values Values) Option {
	return func(w *Wizard) { w.values = merge(w.values, values) }
}

// OnComplete registers the callback invoked once when the last page succeeds.
func OnComplete(fn func(values Values)) Option {
	return func(w *Wizard) { w.onComplete = fn }
}

// Wizard is the page state machine. It is not safe for concurrent use.
type Wizard struct {
	id     string
	pages  []Page
	poster Poster

	index  int
	done   bool
	values Values
	draft  Values

	fieldErrors  map[string]string
	submitErrors []string

	onComplete func(values Values)
	logger     *logrus.Entry
}

// New creates a wizard positioned on the first page.
func New(pages []Page, poster Poster, opts ...Option) (*Wizard, error) {
	if len(pages) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "wizard needs at least one page")
	}
	if poster == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "wizard needs a poster")
	}

	w := &Wizard{
		id:     uuid.NewString(),
		pages:  pages,
		poster: poster,
		values: Values{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewLogger("wizard").WithField("wizard_id", w.id)
	return w, nil
}

// ID identifies this wizard run.
func (w *Wizard) ID() string { return w.id }

// Page returns the index of the current page, or len(pages) once done.
func (w *Wizard) Page() int { return w.index }

// PageCount returns the number of pages.
func (w *Wizard) PageCount() int { return len(w.pages) }

// Current returns the current page. It is the last page once done.
func (w *Wizard) Current() Page {
	if w.done {
		return w.pages[len(w.pages)-1]
	}
	return w.pages[w.index]
}

// Done reports whether every page has been submitted.
func (w *Wizard) Done() bool { return w.done }

// Values returns a copy of the accumulated values.
func (w *Wizard) Values() Values { return merge(nil, w.values) }

// InitialValues returns the values the current page should show: field
// defaults, overlaid by accumulated values, overlaid by values entered in a
// failed submission of this page.
func (w *Wizard) InitialValues() Values {
	out := Values{}
	for _, f := range w.Current().Fields {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	out = merge(out, w.values)
	return merge(out, w.draft)
}

// VisibleFields returns the current page's fields shown for values.
func (w *Wizard) VisibleFields(values Values) []Field {
	current := merge(w.values, values)
	var visible []Field
	for _, f := range w.Current().Fields {
		if f.Visible(current) {
			visible = append(visible, f)
		}
	}
	return visible
}

// Validate runs field-local validation for the visible fields and returns
// messages keyed by field name. An empty map means the page is valid.
func (w *Wizard) Validate(values Values) map[string]string {
	current := merge(w.values, values)
	failures := make(map[string]string)
	for _, f := range w.VisibleFields(values) {
		value := values[f.Name]
		if msg := checkRules(value, f.Rules); msg != "" {
			failures[f.Name] = msg
			continue
		}
		if f.Validate != nil {
			if msg := f.Validate(value, current); msg != "" {
				failures[f.Name] = msg
			}
		}
	}
	return failures
}

// FieldErrors returns the validation messages from the last submission.
func (w *Wizard) FieldErrors() map[string]string { return w.fieldErrors }

// SubmitErrors returns the server messages from the last failed submission.
func (w *Wizard) SubmitErrors() []string { return w.submitErrors }

// Submit validates and posts the current page. On success the wizard moves to
// the next page, or to done after the last one. On failure it stays on the
// page and keeps the entered values.
func (w *Wizard) Submit(ctx context.Context, values Values) error {
	if w.done {
		return errors.New(errors.ErrCodeWizardDone, "wizard is already complete")
	}

	page := w.pages[w.index]
	logger := w.logger.WithFields(logrus.Fields{"page": page.Name, "index": w.index})

	w.fieldErrors = nil
	w.submitErrors = nil

	if failures := w.Validate(values); len(failures) > 0 {
		w.fieldErrors = failures
		w.draft = merge(nil, values)
		logger.WithField("fields", len(failures)).Debug("page failed validation")
		return errors.Validation(failures)
	}

	body := w.submission(page, values)
	resp, err := w.poster.Post(ctx, page.URL, body)
	if err != nil {
		w.submitErrors = errors.UserMessages(err)
		w.draft = merge(nil, values)
		logger.WithError(err).Debug("page submission failed")
		return err
	}

	next := merge(w.values, body)
	if page.MergeResponse {
		responseValues, err := w.responseValues(page, resp)
		if err != nil {
			w.submitErrors = errors.UserMessages(err)
			w.draft = merge(nil, values)
			return err
		}
		next = merge(next, responseValues)
	}
	w.values = next
	w.draft = nil

	if w.index+1 < len(w.pages) {
		w.index++
		logger.Debug("page submitted")
		return nil
	}

	w.index = len(w.pages)
	w.done = true
	logger.Info("wizard complete")
	if w.onComplete != nil {
		w.onComplete(w.Values())
	}
	return nil
}

// submission selects the values posted for a page: every visible field, or
// all values when the page declares no fields.
func (w *Wizard) submission(page Page, values Values) Values {
	if len(page.Fields) == 0 {
		return merge(nil, values)
	}
	out := Values{}
	for _, f := range w.VisibleFields(values) {
		if v, ok := values[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func (w *Wizard) responseValues(page Page, resp gateway.Response) (Values, error) {
	var body map[string]any
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return nil, errors.Decode(page.URL, err)
		}
	}
	if page.ResponseValues != nil {
		return page.ResponseValues(body), nil
	}
	return Values(body), nil
}

func merge(base, overlay Values) Values {
	out := make(Values, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
