package wizard

import (
	"context"
	"net/http"
	"testing"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/grovetools/seqrkit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadPages() []Page {
	return []Page{
		{
			Name:          "files",
			URL:           "/api/upload/validate",
			MergeResponse: true,
			Fields: []Field{
				{Name: "filePath", Rules: "required,bucketpath"},
				{Name: "sampleType", Rules: "required,oneof=WES WGS"},
				{
					Name:   "captureKit",
					Rules:  "required",
					ShowIf: func(v Values) bool { return v["sampleType"] == "WES" && v["hasCaptureKit"] == true },
				},
			},
		},
		{
			Name: "projects",
			URL:  "/api/upload/submit",
			Fields: []Field{
				{Name: "projects", Rules: "required,min=1"},
			},
		},
	}
}

func TestWizardEndToEnd(t *testing.T) {
	api := testutil.NewAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/upload/validate": testutil.JSON(http.StatusOK, map[string]any{"projects": []string{"P1", "P2"}}),
		"POST /api/upload/submit":   testutil.JSON(http.StatusOK, map[string]any{"info": "submitted"}),
	})

	var completions []Values
	w, err := New(uploadPages(), gateway.New(api.URL), OnComplete(func(v Values) {
		completions = append(completions, v)
	}))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, 0, w.Page())
	require.NoError(t, w.Submit(ctx, Values{"filePath": "gs://x", "sampleType": "WES"}))

	assert.Equal(t, 1, w.Page())
	assert.False(t, w.Done())
	assert.Equal(t, []any{"P1", "P2"}, w.InitialValues()["projects"])

	require.NoError(t, w.Submit(ctx, Values{"projects": []string{"P1"}}))

	assert.True(t, w.Done())
	require.Len(t, completions, 1)
	assert.Equal(t, Values{
		"filePath":   "gs://x",
		"sampleType": "WES",
		"projects":   []string{"P1"},
	}, completions[0])

	err = w.Submit(ctx, Values{"projects": []string{"P2"}})
	assert.True(t, errors.Is(err, errors.ErrCodeWizardDone))
	assert.Len(t, completions, 1)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"filePath": "gs://x", "sampleType": "WES"}, calls[0].Body)
}

func TestWizardValidationNeverReachesServer(t *testing.T) {
	api := testutil.NewAPIServer(t, nil)
	w, err := New(uploadPages(), gateway.New(api.URL))
	require.NoError(t, err)

	entered := Values{"filePath": "/local/file.vcf", "sampleType": "RNA"}
	err = w.Submit(context.Background(), entered)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
	assert.Equal(t, map[string]string{
		"filePath":   "Must be a gs:// or s3:// path",
		"sampleType": "Must be one of: WES, WGS",
	}, w.FieldErrors())
	assert.Equal(t, 0, w.Page())
	assert.Equal(t, "/local/file.vcf", w.InitialValues()["filePath"])
	assert.Empty(t, api.Calls())
}

func TestWizardConditionalFields(t *testing.T) {
	api := testutil.NewAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/upload/validate": testutil.JSON(http.StatusOK, map[string]any{}),
	})
	w, err := New(uploadPages(), gateway.New(api.URL))
	require.NoError(t, err)

	hidden := Values{"filePath": "gs://x", "sampleType": "WES", "hasCaptureKit": false, "captureKit": "stale"}
	assert.Len(t, w.VisibleFields(hidden), 2)

	shown := Values{"filePath": "gs://x", "sampleType": "WES", "hasCaptureKit": true}
	assert.Len(t, w.VisibleFields(shown), 3)
	assert.Equal(t, map[string]string{"captureKit": "Required"}, w.Validate(shown))

	require.NoError(t, w.Submit(context.Background(), hidden))
	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].Body, "captureKit")
}

func TestWizardServerFailureKeepsPage(t *testing.T) {
	api := testutil.NewAPIServer(t, map[string]http.HandlerFunc{
		"POST /api/upload/validate": testutil.JSON(http.StatusBadRequest, map[string]any{
			"errors": []string{"File not found", "Missing index"},
		}),
	})
	w, err := New(uploadPages(), gateway.New(api.URL))
	require.NoError(t, err)

	entered := Values{"filePath": "gs://missing", "sampleType": "WGS"}
	err = w.Submit(context.Background(), entered)

	require.Error(t, err)
	assert.Equal(t, 0, w.Page())
	assert.Equal(t, []string{"File not found", "Missing index"}, w.SubmitErrors())
	assert.Equal(t, "gs://missing", w.InitialValues()["filePath"])
	assert.Empty(t, w.FieldErrors())
}

func TestWizardCustomValidatorAndDefaults(t *testing.T) {
	pages := []Page{{
		Name: "password",
		URL:  "/api/users/alice/set_password",
		Fields: []Field{
			{Name: "password", Rules: "required,min=8"},
			{Name: "confirm", Validate: func(value any, values Values) string {
				if value != values["password"] {
					return "Passwords do not match"
				}
				return ""
			}},
			{Name: "notify", Default: true},
		},
	}}
	w, err := New(pages, gateway.New("http://unused"))
	require.NoError(t, err)

	assert.Equal(t, true, w.InitialValues()["notify"])
	assert.Equal(t, map[string]string{"confirm": "Passwords do not match"},
		w.Validate(Values{"password": "longenough", "confirm": "different"}))
	assert.Equal(t, map[string]string{"password": "Must be at least 8"},
		w.Validate(Values{"password": "short", "confirm": "short"}))
}

func TestNewRequiresPages(t *testing.T) {
	_, err := New(nil, gateway.New("http://unused"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestCheckRules(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rules string
		want  string
	}{
		{"absent optional bucket path", nil, "bucketpath", ""},
		{"absent optional choice", nil, "oneof=WES WGS", ""},
		{"absent required", nil, "required,bucketpath", "Required"},
		{"present bad bucket path", "/tmp/file.vcf", "bucketpath", "Must be a gs:// or s3:// path"},
		{"present good bucket path", "gs://bucket/file.vcf", "bucketpath", ""},
		{"no rules", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkRules(tt.value, tt.rules))
		})
	}
}
