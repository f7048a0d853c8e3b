package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobflow/internal/parsing"
	"github.com/jonathan/jobflow/internal/types"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{CompanyProfile, MatchResult}, Names())
}

func TestAllSchemas_ValidJSON(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			data, err := Raw(name)
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal(data, &v))
			assert.Equal(t, "object", v["type"])

			_, err = load(name)
			assert.NoError(t, err)
		})
	}
}

func TestValidate_MatchResult(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "valid", doc: `{"match_score":72,"justification":"ok","suggestions":["a","b"]}`},
		{name: "zero score empty lists", doc: `{"match_score":0,"justification":"","suggestions":[]}`},
		{name: "missing field", doc: `{"match_score":72,"justification":"ok"}`, wantErr: true},
		{name: "score too high", doc: `{"match_score":101,"justification":"","suggestions":[]}`, wantErr: true},
		{name: "score not integer", doc: `{"match_score":"72","justification":"","suggestions":[]}`, wantErr: true},
		{name: "too many suggestions", doc: `{"match_score":1,"justification":"","suggestions":["1","2","3","4","5","6"]}`, wantErr: true},
		{name: "null suggestions", doc: `{"match_score":1,"justification":"","suggestions":null}`, wantErr: true},
		{name: "unknown field", doc: `{"match_score":1,"justification":"","suggestions":[],"extra":true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(MatchResult, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, MatchResult, validationErr.Schema)
		})
	}
}

func TestValidate_CompanyProfile(t *testing.T) {
	assert.NoError(t, ValidateValue(CompanyProfile, types.CompanyProfile{}))
	assert.NoError(t, Validate(CompanyProfile, []byte(`{
		"company_overview":"a","market_customers":"","key_products":"","culture_values":"",
		"industry_competition":"","growth_opportunities":"","additional_insights":"",
		"company_name":"Acme","sources":[{"url":"https://acme.test","text":"x"}]}`)))

	err := Validate(CompanyProfile, []byte(`{"company_overview":"a"}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 6)
	assert.Contains(t, err.Error(), "company_profile validation failed")
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "nope", loadErr.Name)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate(MatchResult, []byte(`{not json`))
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestParserOutputAlwaysConforms(t *testing.T) {
	inputs := []string{
		"",
		"Match Score: 250%\n1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g",
		"\x00\xff binary garbage \xfe",
		"Score: 99999999999999999999999",
		"Suggestions:\n- short\n- this one is long enough",
	}
	for _, in := range inputs {
		assert.NoError(t, ValidateValue(MatchResult, parsing.ParseMatchResult(in)), "input %q", in)
		assert.NoError(t, ValidateValue(CompanyProfile, parsing.ParseCompanyProfile(in)), "input %q", in)
	}
}
